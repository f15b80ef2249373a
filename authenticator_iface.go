package goAccess

import "context"

// Authenticator is the external authentication service. Login must return
// an error matching ErrInvalidCredentials for bad credentials.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	FetchIdentity(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) (LogoutResult, error)
}

// PasswordChanger is implemented by authenticators that can change the
// password of the session's user.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error
}
