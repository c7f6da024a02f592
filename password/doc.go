// Package password implements salted password derivation and verification with
// Argon2id.
//
// # Stored form
//
// A user record carries the salt and the derived key separately. The derived key
// is stored as unpadded standard base64:
//
//	Derive(password, salt) == base64.RawStdEncoding(argon2id(password, salt, params))
//
// The Argon2id parameters are fixed by [Config], so the same candidate and salt
// always reproduce the same stored hash for a given [Verifier].
//
// # Architecture boundaries
//
// This package owns derivation and verification only. It never reads or writes
// user records.
//
// # What this package must NOT do
//
//   - Import any other authcore package.
//   - Log plaintext passwords, salts, or derived keys.
package password
