// Package identity owns the staff user records that anchor authentication:
// unique username and email, the opaque password hash, and the active flag.
// It never sees plaintext passwords; hashing happens in security/password.
package identity
