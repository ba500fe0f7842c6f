// Package jwt issues and verifies the access tokens handed out after a
// successful one-time code verification.
//
// Tokens are HS512 signed. The subject is the verified email address.
package jwt
