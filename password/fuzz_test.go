package password

import "testing"

// FuzzValidate checks that scoring never panics and that the evaluation
// is internally consistent for any input.
func FuzzValidate(f *testing.F) {
	f.Add("")
	f.Add("abc123")
	f.Add("Tr0ub4dor&3")
	f.Add("AAAAaaaa1111!!!!")
	f.Add("Password#2024")
	f.Add("密码Pass123!")
	f.Add("\x00\xff\xfe")

	p := DefaultPolicy()
	f.Fuzz(func(t *testing.T, pw string) {
		eval := Validate(pw, p)
		if eval.Score < 0 || eval.Score > 100 {
			t.Fatalf("score %d out of range for %q", eval.Score, pw)
		}
		if eval.Valid != (len(eval.Violations) == 0) {
			t.Fatalf("valid=%t with %d violations for %q", eval.Valid, len(eval.Violations), pw)
		}
		if len(eval.Messages()) != len(eval.Violations) {
			t.Fatalf("messages do not match violations for %q", pw)
		}
		if Accept(pw, p) != eval.Valid {
			t.Fatalf("Accept disagrees with Validate for %q", pw)
		}
		if eval.Strength != strengthFor(eval.Score) {
			t.Fatalf("strength %v does not match score %d", eval.Strength, eval.Score)
		}

		salt := "00112233445566778899aabbccddeeff"
		stored := Salted{Digest: HashWithSalt(pw, salt), Salt: salt}
		if !VerifySalted(pw, stored) {
			t.Fatalf("salted digest does not verify for %q", pw)
		}
		if VerifySalted(pw+"x", stored) {
			t.Fatalf("salted digest verifies a different password for %q", pw)
		}
	})
}
