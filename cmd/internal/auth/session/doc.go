// Package session implements Rollcall's authentication core: credential
// verification, bearer-token issuance, the persistent session ledger with
// its per-user concurrent-device cap, and token validation on every
// authenticated request.
//
// Layering is deliberate: the token manager verifies form, signature and
// expiry only; the ledger independently confirms that the token still maps
// to a live session. That separation is what makes logout and revocation
// effective while a token's signature is still valid.
package session
