// Package fieldcrypt provides authenticated symmetric encryption for single
// sensitive record fields stored at rest (currently the student age).
//
// Ciphertexts are AES-GCM sealed with a fresh random nonce per call, laid
// out as nonce||ciphertext. Encryption is therefore non-deterministic: two
// encryptions of the same value are not byte-equal and must not be compared.
// The key is supplied once at process start; changing it invalidates all
// existing ciphertexts.
package fieldcrypt
