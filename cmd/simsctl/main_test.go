package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestPasswordCheck(t *testing.T) {
	out, _, err := execute(t, "password", "check", "Tr0ub4dor&3x")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "valid: true") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, _, err = execute(t, "password", "check", "abc123")
	if err == nil {
		t.Fatal("expected weak password to fail")
	}
	if !strings.Contains(out, "valid: false") || !strings.Contains(out, "  - ") {
		t.Fatalf("expected violations listed:\n%s", out)
	}
}

func TestPasswordGenerate(t *testing.T) {
	out, _, err := execute(t, "password", "generate", "-n", "16")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := strings.TrimSpace(out); len(got) != 16 {
		t.Fatalf("expected 16 characters, got %q", got)
	}
}

func TestPasswordResetToken(t *testing.T) {
	out, _, err := execute(t, "password", "reset-token", "--ttl", "1h")
	if err != nil {
		t.Fatalf("reset-token: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || len(lines[0]) != 128 {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.HasPrefix(lines[1], "expires: ") {
		t.Fatalf("missing expiry line in %q", out)
	}
}

func TestMask(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"mask", "phone", "13812345678"}, "138****5678"},
		{[]string{"mask", "phone", "13812345678", "--role", "teacher"}, "138****5678"},
		{[]string{"mask", "phone", "13812345678", "--role", "system_admin"}, "13812345678"},
	}
	for _, tc := range cases {
		out, _, err := execute(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if got := strings.TrimSpace(out); got != tc.want {
			t.Fatalf("%v = %q, want %q", tc.args, got, tc.want)
		}
	}

	if _, _, err := execute(t, "mask", "phone", "1", "--role", "janitor"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestPerms(t *testing.T) {
	out, _, err := execute(t, "perms", "audit_admin")
	if err != nil {
		t.Fatalf("perms: %v", err)
	}
	if strings.TrimSpace(out) != "audit_admin: audit:read, dashboard:view, password:change" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = execute(t, "perms", "--routes", "teacher")
	if err != nil {
		t.Fatalf("perms --routes: %v", err)
	}
	if !strings.Contains(out, "/my-students") || strings.Contains(out, " /students") {
		t.Fatalf("unexpected routes %q", out)
	}
}

func TestCryptoRoundTrip(t *testing.T) {
	const key = "000102030405060708090a0b0c0d0e0f"
	ct, _, err := execute(t, "crypto", "encrypt", "--key", key, "ID 110101199003071234")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, _, err := execute(t, "crypto", "decrypt", "--key", key, strings.TrimSpace(ct))
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if strings.TrimSpace(pt) != "ID 110101199003071234" {
		t.Fatalf("round trip mismatch: %q", pt)
	}

	out, _, err := execute(t, "crypto", "hash", "abc")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.TrimSpace(out) != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %q", out)
	}
}

func TestSessionLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "simsctl.yaml")
	cfg := `session:
  backend: file
  file: ` + filepath.Join(dir, "session.json") + `
token:
  key: 0123456789abcdef0123456789abcdef
lockout:
  threshold: 3
users:
  - username: "2024001"
    password: "Welcome#2024"
    display_name: Li Wei
    role: student
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	run := func(args ...string) (string, string, error) {
		return execute(t, append([]string{"--config", cfgPath}, args...)...)
	}

	out, _, err := run("session", "login", "-u", "2024001", "-p", "Welcome#2024")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "state: authenticated") || !strings.Contains(out, "password: change required") {
		t.Fatalf("unexpected login output:\n%s", out)
	}

	out, _, err = run("session", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "user: 2024001 (Li Wei)") || !strings.Contains(out, "role: student") {
		t.Fatalf("session not restored from file:\n%s", out)
	}

	if _, _, err := run("session", "can", "student:read"); err == nil {
		t.Fatal("student must not read student records")
	}
	if out, _, err := run("session", "can", "profile:view"); err != nil || strings.TrimSpace(out) != "allowed" {
		t.Fatalf("can profile:view: %q %v", out, err)
	}

	if _, _, err := run("session", "change-password", "--old", "Welcome#2024", "--new", "N3w!Sims#Pwd"); err != nil {
		t.Fatalf("change-password: %v", err)
	}

	if out, _, err := run("session", "logout"); err != nil || !strings.Contains(out, "signed out") {
		t.Fatalf("logout: %q %v", out, err)
	}
	out, _, err = run("session", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "state: anonymous") {
		t.Fatalf("expected anonymous after logout:\n%s", out)
	}
}

func TestSessionLockoutPersists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SIMS_SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("SIMS_TOKEN_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SIMS_LOCKOUT_THRESHOLD", "2")

	for i := 0; i < 2; i++ {
		if _, _, err := execute(t, "session", "login", "-u", "2024001", "-p", "wrong"); err == nil {
			t.Fatal("expected bad password to fail")
		}
	}
	_, _, err := execute(t, "session", "login", "-u", "2024001", "-p", "Welcome#2024")
	if err == nil || !strings.Contains(err.Error(), "account temporarily locked") {
		t.Fatalf("expected lockout carried across invocations, got %v", err)
	}

	out, _, err := execute(t, "session", "unlock")
	if err != nil || strings.Contains(out, "locked until") {
		t.Fatalf("unlock: %q %v", out, err)
	}
	if _, _, err := execute(t, "session", "login", "-u", "2024001", "-p", "Welcome#2024", "--metrics"); err != nil {
		t.Fatalf("login after unlock: %v", err)
	}
}

func TestSessionRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	t.Setenv("SIMS_SESSION_BACKEND", "redis")
	t.Setenv("SIMS_REDIS_ADDR", mr.Addr())
	t.Setenv("SIMS_TOKEN_KEY", "0123456789abcdef0123456789abcdef")

	if _, _, err := execute(t, "session", "login", "-u", "t1001", "-p", "Welcome#2024"); err != nil {
		t.Fatalf("login: %v", err)
	}
	token := mr.HGet("sims:mirror:simsctl", "token")
	if token == "" {
		t.Fatal("expected token mirrored to redis")
	}

	out, _, err := execute(t, "session", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "role: teacher") {
		t.Fatalf("session not restored from redis:\n%s", out)
	}

	for i := 0; i < 5; i++ {
		_, _, _ = execute(t, "session", "login", "-u", "cadmin", "-p", "wrong")
	}
	if !mr.Exists("sims:alo:cadmin") {
		t.Fatal("expected shared failure counter for cadmin")
	}
}
