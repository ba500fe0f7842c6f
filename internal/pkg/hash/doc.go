// Package hash provides helpers for hashing and verifying secrets.
//
// One-time codes are never stored in plaintext: the issuer stores
// Hash(identity + ":" + code) and the verifier calls Verify, which compares
// in constant time. The algorithm is chosen by driver name so deployments can
// trade speed (HMAC) for brute-force resistance (bcrypt, argon2id).
package hash
