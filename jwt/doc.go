// Package jwt issues and verifies the signed identity tokens handed out by
// the reference authentication service. Tokens carry the user ID, username
// and role plus a unique token ID used for revocation.
package jwt
