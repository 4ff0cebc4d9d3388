// Package students manages the student roster. The only sensitive field
// is age: it is sealed with an AEAD envelope before it touches the
// database and unsealed on the way out, so a database dump alone never
// reveals it.
package students
