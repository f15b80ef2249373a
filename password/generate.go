package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goAccess/crypt"
)

const (
	lowerAlphabet   = "abcdefghijklmnopqrstuvwxyz"
	upperAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitAlphabet   = "0123456789"
	specialAlphabet = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	// DefaultGenerateLength is the length used by account provisioning.
	DefaultGenerateLength = 12

	maxGenerateAttempts = 128
)

var (
	// ErrGenerateLength is returned when no password of the requested length
	// could satisfy the policy.
	ErrGenerateLength = errors.New("password: length cannot satisfy policy")
	// ErrGenerateExhausted is returned when every generated candidate failed
	// validation.
	ErrGenerateExhausted = errors.New("password: could not generate a compliant password")
)

// Generate returns a random password of length characters that passes
// Validate under p. One character of each required category is seeded, the
// rest is drawn from the union of the required alphabets and the result is
// shuffled. Candidates that still break a rule, such as an accidental
// sequence, are discarded and redrawn.
func Generate(length int, p Policy) (string, error) {
	if length < p.MinLength || length > p.MaxLength || length < p.requiredCategories() {
		return "", fmt.Errorf("%w: %d", ErrGenerateLength, length)
	}

	var seeds []string
	if p.RequireLowercase {
		seeds = append(seeds, lowerAlphabet)
	}
	if p.RequireUppercase {
		seeds = append(seeds, upperAlphabet)
	}
	if p.RequireDigit {
		seeds = append(seeds, digitAlphabet)
	}
	if p.RequireSpecial {
		seeds = append(seeds, specialAlphabet)
	}
	pool := strings.Join(seeds, "")
	if pool == "" {
		pool = lowerAlphabet + digitAlphabet
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate, err := draw(length, seeds, pool)
		if err != nil {
			return "", err
		}
		if Validate(candidate, p).Valid {
			return candidate, nil
		}
	}
	return "", ErrGenerateExhausted
}

func draw(length int, seeds []string, pool string) (string, error) {
	out := make([]byte, 0, length)
	for _, alphabet := range seeds {
		c, err := pick(alphabet)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(pool)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	if err := crypt.Shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func pick(alphabet string) (byte, error) {
	i, err := crypt.RandomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}
