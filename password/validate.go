package password

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Strength is the tier derived from a password score.
type Strength int

const (
	Weak Strength = iota + 1
	Fair
	Good
	Strong
	VeryStrong
)

func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Fair:
		return "fair"
	case Good:
		return "good"
	case Strong:
		return "strong"
	case VeryStrong:
		return "very strong"
	default:
		return "unknown"
	}
}

// ViolationCode identifies a broken rule.
type ViolationCode string

const (
	ViolationTooShort         ViolationCode = "too_short"
	ViolationTooLong          ViolationCode = "too_long"
	ViolationMissingUppercase ViolationCode = "missing_uppercase"
	ViolationMissingLowercase ViolationCode = "missing_lowercase"
	ViolationMissingDigit     ViolationCode = "missing_digit"
	ViolationMissingSpecial   ViolationCode = "missing_special"
	ViolationRepeatedChars    ViolationCode = "repeated_chars"
	ViolationForbiddenWord    ViolationCode = "forbidden_word"
	ViolationSequential       ViolationCode = "sequential"
)

// Violation is one broken rule with a user-facing message.
type Violation struct {
	Code    ViolationCode
	Message string
}

// Evaluation is the result of Validate. It is data, never an error.
type Evaluation struct {
	Valid       bool
	Strength    Strength
	Score       int
	Violations  []Violation
	Suggestions []string
}

// Has reports whether the evaluation recorded a violation with code.
func (e Evaluation) Has(code ViolationCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Messages returns the violation messages in order.
func (e Evaluation) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Message
	}
	return out
}

const (
	lengthPointsCap   = 20
	upperPoints       = 10
	lowerPoints       = 10
	digitPoints       = 10
	specialPoints     = 15
	repeatPenalty     = 10
	forbiddenPenalty  = 20
	diversityCap      = 20
	sequentialPenalty = 15
	sequentialRun     = 3

	specialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"
)

// Validate scores pw against p. Lengths are counted in characters, not bytes.
func Validate(pw string, p Policy) Evaluation {
	var (
		eval  Evaluation
		score int
	)
	violate := func(code ViolationCode, msg, hint string) {
		eval.Violations = append(eval.Violations, Violation{Code: code, Message: msg})
		if hint != "" {
			eval.Suggestions = append(eval.Suggestions, hint)
		}
	}

	n := utf8.RuneCountInString(pw)
	if n < p.MinLength {
		violate(ViolationTooShort,
			fmt.Sprintf("password must be at least %d characters", p.MinLength),
			fmt.Sprintf("use %d or more characters", p.MinLength))
	} else {
		score += min(n*2, lengthPointsCap)
	}
	if n > p.MaxLength {
		violate(ViolationTooLong, fmt.Sprintf("password must be at most %d characters", p.MaxLength), "")
	}

	c := classify(pw)
	category := func(required, present bool, points int, code ViolationCode, msg, hint string) {
		switch {
		case required && !present:
			violate(code, msg, hint)
		case present:
			score += points
		}
	}
	category(p.RequireUppercase, c.upper, upperPoints, ViolationMissingUppercase,
		"password must contain an uppercase letter", "add an uppercase letter A-Z")
	category(p.RequireLowercase, c.lower, lowerPoints, ViolationMissingLowercase,
		"password must contain a lowercase letter", "add a lowercase letter a-z")
	category(p.RequireDigit, c.digit, digitPoints, ViolationMissingDigit,
		"password must contain a digit", "add a digit 0-9")
	category(p.RequireSpecial, c.special, specialPoints, ViolationMissingSpecial,
		"password must contain a special character", "add a special character such as !@#$%^&*")

	if longestRun(pw) > p.MaxConsecutiveRepeat {
		violate(ViolationRepeatedChars,
			fmt.Sprintf("the same character may not repeat more than %d times in a row", p.MaxConsecutiveRepeat),
			"use fewer repeated characters")
		score -= repeatPenalty
	}

	if w, ok := forbiddenWord(pw, p.ForbiddenSubstrings); ok {
		violate(ViolationForbiddenWord,
			fmt.Sprintf("password must not contain the common word %q", w),
			"avoid common words and simple patterns")
		score -= forbiddenPenalty
	}

	score += min(c.distinct*2, diversityCap)

	if hasSequence(pw) {
		violate(ViolationSequential,
			"password must not contain ascending digit or letter sequences",
			"avoid sequences such as 123 or abc")
		score -= sequentialPenalty
	}

	eval.Score = max(0, min(100, score))
	eval.Strength = strengthFor(eval.Score)
	eval.Valid = len(eval.Violations) == 0
	return eval
}

// Accept is the pass/fail form of Validate for callers that only need a
// boolean answer.
func Accept(pw string, p Policy) bool {
	return Validate(pw, p).Valid
}

func strengthFor(score int) Strength {
	switch {
	case score < 30:
		return Weak
	case score < 50:
		return Fair
	case score < 70:
		return Good
	case score < 90:
		return Strong
	default:
		return VeryStrong
	}
}

type classes struct {
	upper, lower, digit, special bool
	distinct                     int
}

func classify(pw string) classes {
	var c classes
	seen := make(map[rune]struct{}, len(pw))
	for _, r := range pw {
		seen[r] = struct{}{}
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(specialChars, r):
			c.special = true
		}
	}
	c.distinct = len(seen)
	return c
}

func longestRun(pw string) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range []rune(pw) {
		if i > 0 && r == prev {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
		prev = r
	}
	return longest
}

func forbiddenWord(pw string, words []string) (string, bool) {
	lower := strings.ToLower(pw)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return w, true
		}
	}
	return "", false
}

func hasSequence(pw string) bool {
	rs := []rune(strings.ToLower(pw))
	for i := 0; i+sequentialRun <= len(rs); i++ {
		a, b, c := rs[i], rs[i+1], rs[i+2]
		if b != a+1 || c != b+1 {
			continue
		}
		if isDigit(a) && isDigit(c) || isLower(a) && isLower(c) {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
