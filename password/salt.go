package password

import "github.com/MrEthical07/goAccess/crypt"

// SaltBytes is the number of random bytes in a generated salt.
const SaltBytes = 16

// Salted is a digest stored together with the salt it was computed with.
type Salted struct {
	Digest string
	Salt   string
}

// NewSalt returns SaltBytes random bytes as hex.
func NewSalt() (string, error) {
	return crypt.RandomHex(SaltBytes)
}

// HashWithSalt digests the concatenation of pw and salt.
func HashWithSalt(pw, salt string) string {
	return crypt.HashString(pw + salt)
}

// HashSalted generates a fresh salt and returns it with the digest. Both
// must be stored; the salt is never re-derived.
func HashSalted(pw string) (Salted, error) {
	salt, err := NewSalt()
	if err != nil {
		return Salted{}, err
	}
	return Salted{Digest: HashWithSalt(pw, salt), Salt: salt}, nil
}

// VerifySalted reports whether pw matches a stored digest and salt.
func VerifySalted(pw string, stored Salted) bool {
	return crypt.EqualHex(HashWithSalt(pw, stored.Salt), stored.Digest)
}
