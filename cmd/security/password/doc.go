// Package password implements one-way password hashing for Rollcall staff
// credentials using bcrypt with a configurable cost factor.
//
// The salt is embedded in the encoded hash, so verification needs only the
// stored hash and the candidate plaintext. bcrypt only considers the first
// 72 bytes of input; longer inputs are truncated identically at hash and
// verify time, so correctness is preserved for the significant prefix.
package password
