// Package localauth is an in-process implementation of the
// goAccess.Authenticator and goAccess.PasswordChanger contracts.
//
// It keeps users in memory, stores Argon2id password hashes, issues signed
// JWTs and revokes them by token ID on logout. An optional [Limiter] such as
// the Redis-backed lockout counter shares failed-login state across
// processes.
//
// Service is meant for development, demos, the simsctl CLI and tests. It is
// not a user directory.
package localauth
