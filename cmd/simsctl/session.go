package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/crypt"
	"github.com/MrEthical07/goAccess/internal/lockout"
	"github.com/MrEthical07/goAccess/jwt"
	"github.com/MrEthical07/goAccess/localauth"
	promexport "github.com/MrEthical07/goAccess/metrics/export/prometheus"
	"github.com/MrEthical07/goAccess/password"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/MrEthical07/goAccess/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const demoPassword = "Welcome#2024"

var demoUsers = []userConfig{
	{Username: "2024001", DisplayName: "Li Wei", Role: string(permission.RoleStudent), UnitID: "cs", UnitName: "Computer Science"},
	{Username: "t1001", DisplayName: "Zhang Min", Role: string(permission.RoleTeacher), UnitID: "cs", UnitName: "Computer Science"},
	{Username: "cadmin", DisplayName: "College Office", Role: string(permission.RoleCollegeAdmin), UnitID: "cs", UnitName: "Computer Science"},
	{Username: "gadmin", DisplayName: "Graduate School Office", Role: string(permission.RoleGradAdmin)},
	{Username: "sysadmin", DisplayName: "System Administrator", Role: string(permission.RoleSystemAdmin)},
	{Username: "auditor", DisplayName: "Security Auditor", Role: string(permission.RoleAuditAdmin)},
}

// sessionEnv is one process's view of the persisted session.
type sessionEnv struct {
	manager  *goAccess.Manager
	auth     *localauth.Service
	exporter *promexport.PrometheusExporter
	closers  []func()
}

func (e *sessionEnv) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (a *app) openSession(ctx context.Context, stderr io.Writer) (*sessionEnv, error) {
	cfg := a.config
	env := &sessionEnv{}
	ok := false
	defer func() {
		if !ok {
			env.close()
		}
	}()

	var rdb redis.UniversalClient
	var mirror session.Mirror
	switch strings.ToLower(cfg.Session.Backend) {
	case "", "file":
		fm, err := session.NewFileMirror(cfg.Session.File)
		if err != nil {
			return nil, err
		}
		mirror = fm
	case "redis":
		addr := cfg.Redis.Addr
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, fmt.Errorf("start embedded redis: %w", err)
			}
			env.closers = append(env.closers, mr.Close)
			addr = mr.Addr()
		}
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		env.closers = append(env.closers, func() { _ = rdb.Close() })
		mirror = session.NewRedisMirror(rdb, cfg.Redis.Prefix, cfg.Redis.ClientID)
	case "memory":
		mirror = session.NewMemoryMirror()
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	key := []byte(cfg.Token.Key)
	if len(key) == 0 {
		k, err := crypt.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		key = k
		log.Printf("goAccess: token.key not set, sessions will not survive this process")
	}
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    key,
		Issuer:        cfg.Token.Issuer,
		Leeway:        30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		return nil, err
	}

	var opts []localauth.Option
	if rdb != nil {
		opts = append(opts, localauth.WithLimiter(lockout.NewRedisLimiter(rdb, cfg.Redis.Prefix, lockout.Config{
			Threshold: cfg.Lockout.Threshold,
			Duration:  cfg.Lockout.Duration,
		})))
	}
	auth, err := localauth.New(tokens, hasher, opts...)
	if err != nil {
		return nil, err
	}
	if err := seedUsers(auth, cfg.Users); err != nil {
		return nil, err
	}
	env.auth = auth

	core := goAccess.DefaultConfig()
	core.Session.IdleTimeout = cfg.Session.IdleTimeout
	core.Lockout.Threshold = cfg.Lockout.Threshold
	core.Lockout.Duration = cfg.Lockout.Duration
	core.Password.MaxAge = cfg.Password.MaxAge

	b := goAccess.New().
		WithConfig(core).
		WithAuthenticator(auth).
		WithMirror(mirror).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true)
	if cfg.Audit {
		b.WithAuditSink(goAccess.NewJSONWriterSink(stderr))
	}
	m, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	env.closers = append(env.closers, m.Close)
	env.manager = m
	env.exporter = promexport.NewPrometheusExporter(m)

	ok = true
	return env, nil
}

func seedUsers(auth *localauth.Service, users []userConfig) error {
	if len(users) == 0 {
		users = demoUsers
	}
	for _, u := range users {
		role, err := permission.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		pw := u.Password
		if pw == "" {
			pw = demoPassword
		}
		if _, err := auth.AddUser(localauth.NewUser{
			ID:          u.ID,
			Username:    u.Username,
			Password:    pw,
			DisplayName: u.DisplayName,
			Role:        role,
			UnitID:      u.UnitID,
			UnitName:    u.UnitName,
		}); err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
	}
	return nil
}

// userError turns a core error into the text shown to the operator.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(goAccess.PublicMessage(err))
}

func newSessionCmd(a *app) *cobra.Command {
	var env *sessionEnv
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Drive a persisted session against the built-in authentication service",
		Long: `Each invocation loads the session from the configured mirror, performs one
operation and writes the session back. Without a users list in the config
file a demo directory is seeded; every demo account uses the password
` + demoPassword + `.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			e, err := a.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			env = e
			return nil
		},
	}
	metricsFlag := "metrics"
	cmd.PersistentFlags().Bool(metricsFlag, false, "print Prometheus metrics after the command")
	_ = a.v.BindPFlag(metricsFlag, cmd.PersistentFlags().Lookup(metricsFlag))

	// run closes the session environment after fn, whatever its outcome.
	run := func(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			defer env.close()
			err := fn(cmd, args)
			if a.config.Metrics {
				text, rerr := env.exporter.Render()
				if rerr != nil {
					return errors.Join(err, rerr)
				}
				fmt.Fprint(cmd.ErrOrStderr(), text)
			}
			return err
		}
	}

	var username, pw string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			_, err := env.manager.Login(cmd.Context(), goAccess.Credentials{Username: username, Password: pw})
			if err != nil {
				if n := env.manager.FailedAttempts(); n > 0 && !env.manager.IsLocked() {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed attempts: %d\n", n)
				}
				return userError(err)
			}
			return printStatus(cmd.OutOrStdout(), env.manager)
		}),
	}
	login.Flags().StringVarP(&username, "username", "u", "", "username")
	login.Flags().StringVarP(&pw, "password", "p", "", "password")
	_ = login.MarkFlagRequired("username")
	_ = login.MarkFlagRequired("password")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			if err := restore(cmd.Context(), env.manager); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), goAccess.PublicMessage(err))
			}
			return printStatus(cmd.OutOrStdout(), env.manager)
		}),
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the identity again for the stored token",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			if _, err := env.manager.RefreshIdentity(cmd.Context()); err != nil {
				return userError(err)
			}
			return printStatus(cmd.OutOrStdout(), env.manager)
		}),
	}

	var oldPw, newPw, confirm string
	change := &cobra.Command{
		Use:   "change-password",
		Short: "Change the signed-in user's password",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			if err := restore(cmd.Context(), env.manager); err != nil {
				return userError(err)
			}
			if confirm == "" {
				confirm = newPw
			}
			err := env.manager.ChangePassword(cmd.Context(), goAccess.ChangePasswordRequest{Old: oldPw, New: newPw, Confirm: confirm})
			var policyErr *goAccess.PolicyError
			if errors.As(err, &policyErr) {
				for _, m := range policyErr.Evaluation.Messages() {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", m)
				}
			}
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return nil
		}),
	}
	change.Flags().StringVar(&oldPw, "old", "", "current password")
	change.Flags().StringVar(&newPw, "new", "", "new password")
	change.Flags().StringVar(&confirm, "confirm", "", "new password again (defaults to --new)")
	_ = change.MarkFlagRequired("old")
	_ = change.MarkFlagRequired("new")

	can := &cobra.Command{
		Use:   "can PERMISSION...",
		Short: "Check whether the session holds any of the permissions",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), env.manager); err != nil {
				return userError(err)
			}
			perms := make([]permission.Permission, len(args))
			for i, p := range args {
				perms[i] = permission.Permission(p)
			}
			if !env.manager.HasPermission(perms...) {
				return fmt.Errorf("denied: %s", strings.Join(args, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		}),
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored token",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			if err := env.manager.Logout(cmd.Context()); err != nil {
				// The local session is cleared either way.
				fmt.Fprintln(cmd.ErrOrStderr(), goAccess.PublicMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		}),
	}

	unlock := &cobra.Command{
		Use:   "unlock",
		Short: "Clear the failed-login count and any lockout",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string) error {
			env.manager.ResetLockout(cmd.Context())
			return printStatus(cmd.OutOrStdout(), env.manager)
		}),
	}

	cmd.AddCommand(login, status, refresh, change, can, logout, unlock)
	return cmd
}

// restore fetches the identity for a token loaded from the mirror.
func restore(ctx context.Context, m *goAccess.Manager) error {
	if m.Identity() != nil || m.Token() == "" {
		return nil
	}
	_, err := m.Restore(ctx)
	return err
}

func printStatus(w io.Writer, m *goAccess.Manager) error {
	s := m.Snapshot()
	fmt.Fprintf(w, "state: %s\n", s.State)
	if s.Identity != nil {
		fmt.Fprintf(w, "user: %s (%s)\nrole: %s\n", s.Identity.Username, s.Identity.DisplayName, s.Identity.Role)
		if s.Identity.UnitName != "" {
			fmt.Fprintf(w, "unit: %s\n", s.Identity.UnitName)
		}
		perms := m.Permissions().Slice()
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		fmt.Fprintf(w, "permissions: %s\n", strings.Join(names, ", "))
	}
	if s.NeedsPasswordChange {
		fmt.Fprintln(w, "password: change required")
	} else if s.PasswordExpiry.Expiring {
		fmt.Fprintf(w, "password: expires in %d days\n", s.PasswordExpiry.DaysLeft)
	}
	if s.FailedAttempts > 0 {
		fmt.Fprintf(w, "failed attempts: %d\n", s.FailedAttempts)
	}
	if s.Locked {
		fmt.Fprintf(w, "locked until: %s\n", s.LockoutUntil.Format(time.RFC3339))
	}
	return nil
}
