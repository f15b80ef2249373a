package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliConfig is the simsctl configuration. It is read from a YAML file,
// SIMS_* environment variables and flags, in increasing precedence.
type cliConfig struct {
	Session struct {
		// Backend is file, redis or memory.
		Backend     string        `mapstructure:"backend"`
		File        string        `mapstructure:"file"`
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"session"`
	Redis struct {
		// Addr empty with the redis backend starts an embedded server.
		Addr     string `mapstructure:"addr"`
		Prefix   string `mapstructure:"prefix"`
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"redis"`
	Token struct {
		Key    string        `mapstructure:"key"`
		TTL    time.Duration `mapstructure:"ttl"`
		Issuer string        `mapstructure:"issuer"`
	} `mapstructure:"token"`
	Lockout struct {
		Threshold int           `mapstructure:"threshold"`
		Duration  time.Duration `mapstructure:"duration"`
	} `mapstructure:"lockout"`
	Password struct {
		MaxAge time.Duration `mapstructure:"max_age"`
	} `mapstructure:"password"`
	Audit   bool         `mapstructure:"audit"`
	Metrics bool         `mapstructure:"metrics"`
	Users   []userConfig `mapstructure:"users"`
}

type userConfig struct {
	ID          string `mapstructure:"id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	DisplayName string `mapstructure:"display_name"`
	Role        string `mapstructure:"role"`
	UnitID      string `mapstructure:"unit_id"`
	UnitName    string `mapstructure:"unit_name"`
}

func setDefaults(v *viper.Viper) {
	def := goAccess.DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.file", filepath.Join(home, ".simsctl", "session.json"))
	v.SetDefault("session.idle_timeout", def.Session.IdleTimeout)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.prefix", "sims")
	v.SetDefault("redis.client_id", "simsctl")
	v.SetDefault("token.key", "")
	v.SetDefault("token.ttl", 8*time.Hour)
	v.SetDefault("token.issuer", "simsctl")
	v.SetDefault("lockout.threshold", def.Lockout.Threshold)
	v.SetDefault("lockout.duration", def.Lockout.Duration)
	v.SetDefault("password.max_age", def.Password.MaxAge)
	v.SetDefault("audit", false)
	v.SetDefault("metrics", false)
}

// app carries state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	config  cliConfig
}

func (a *app) load() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("simsctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".simsctl"))
		}
	}

	a.v.SetEnvPrefix("SIMS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := a.v.Unmarshal(&a.config); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	setDefaults(a.v)

	root := &cobra.Command{
		Use:   "simsctl",
		Short: "Session and access-control tooling for the student records system",
		Long: `simsctl exercises the session and access-control core from the command line.

It checks and generates passwords, masks sensitive fields, prints the role
permission table, runs the crypto primitives, and drives a full session
(login, status, password change, logout) against the built-in
authentication service.

Configuration is read from simsctl.yaml in the working directory or
$HOME/.simsctl, then from SIMS_* environment variables (for example
SIMS_TOKEN_KEY, SIMS_SESSION_BACKEND, SIMS_REDIS_ADDR), then from flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default simsctl.yaml in . or $HOME/.simsctl)")
	root.PersistentFlags().String("session-backend", "", "session mirror backend: file, redis or memory")
	root.PersistentFlags().String("session-file", "", "session file for the file backend")
	root.PersistentFlags().String("redis-addr", "", "redis address for the redis backend")
	_ = a.v.BindPFlag("session.backend", root.PersistentFlags().Lookup("session-backend"))
	_ = a.v.BindPFlag("session.file", root.PersistentFlags().Lookup("session-file"))
	_ = a.v.BindPFlag("redis.addr", root.PersistentFlags().Lookup("redis-addr"))

	root.AddCommand(
		newPasswordCmd(),
		newMaskCmd(),
		newPermsCmd(),
		newCryptoCmd(),
		newSessionCmd(a),
		newVersionCmd(),
	)
	return root
}
