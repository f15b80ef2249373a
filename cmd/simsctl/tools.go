package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/MrEthical07/goAccess/crypt"
	"github.com/MrEthical07/goAccess/mask"
	"github.com/MrEthical07/goAccess/password"
	"github.com/MrEthical07/goAccess/permission"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simsctl %s (%s)\n", version, commit)
		},
	}
}

// ---------------------------------------------------------------------------
// password
// ---------------------------------------------------------------------------

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Check, generate and hash passwords",
	}

	var asJSON bool
	check := &cobra.Command{
		Use:   "check PASSWORD",
		Short: "Score a password against the default policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eval := password.Validate(args[0], password.DefaultPolicy())
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, eval)
			}
			fmt.Fprintf(out, "valid: %t\nstrength: %s\nscore: %d\n", eval.Valid, eval.Strength, eval.Score)
			for _, m := range eval.Messages() {
				fmt.Fprintf(out, "  - %s\n", m)
			}
			if !eval.Valid {
				return errors.New("password rejected by policy")
			}
			return nil
		},
	}
	check.Flags().BoolVar(&asJSON, "json", false, "print the evaluation as JSON")

	var length int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random password that satisfies the default policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := password.Generate(length, password.DefaultPolicy())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pw)
			return nil
		},
	}
	generate.Flags().IntVarP(&length, "length", "n", 12, "password length")

	hash := &cobra.Command{
		Use:   "hash PASSWORD",
		Short: "Hash a password with Argon2id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := password.NewArgon2(password.DefaultArgon2Config())
			if err != nil {
				return err
			}
			encoded, err := h.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}

	var ttl time.Duration
	reset := &cobra.Command{
		Use:   "reset-token",
		Short: "Issue a one-time password reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := password.NewResetToken(time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires: %s\n", tok.Token, tok.Expires.UTC().Format(time.RFC3339))
			return nil
		},
	}
	reset.Flags().DurationVar(&ttl, "ttl", password.DefaultResetTTL, "token lifetime")

	cmd.AddCommand(check, generate, hash, reset)
	return cmd
}

// ---------------------------------------------------------------------------
// mask
// ---------------------------------------------------------------------------

func newMaskCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "mask FIELD VALUE",
		Short: "Mask a sensitive value the way a given role would see it",
		Long: `Fields: phone, idCard, email, name, bankCard, address.

Without --role the value is always masked. With --role the value is shown
in full to roles that may see unmasked data.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := mask.Field(args[0])
			var out string
			if role == "" {
				out = mask.Apply(args[1], field)
			} else {
				r, err := permission.ParseRole(role)
				if err != nil {
					return err
				}
				out = mask.Display(args[1], field, r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "viewer role")
	return cmd
}

// ---------------------------------------------------------------------------
// perms
// ---------------------------------------------------------------------------

func newPermsCmd() *cobra.Command {
	var routes bool
	cmd := &cobra.Command{
		Use:   "perms [ROLE]",
		Short: "Print the permissions (or reachable routes) of one or every role",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles := permission.AllRoles()
			if len(args) == 1 {
				r, err := permission.ParseRole(args[0])
				if err != nil {
					return err
				}
				roles = []permission.Role{r}
			}

			res := permission.Default()
			out := cmd.OutOrStdout()
			for _, r := range roles {
				var items []string
				if routes {
					for _, rt := range permission.DefaultRoutes() {
						if !rt.Public && rt.Permits(r) {
							items = append(items, rt.Path)
						}
					}
				} else {
					for _, p := range res.PermissionsFor(r).Slice() {
						items = append(items, string(p))
					}
					sort.Strings(items)
				}
				fmt.Fprintf(out, "%s: %s\n", r, strings.Join(items, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&routes, "routes", false, "list routes instead of permissions")
	return cmd
}

// ---------------------------------------------------------------------------
// crypto
// ---------------------------------------------------------------------------

func newCryptoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crypto",
		Short: "Run the hashing, symmetric and asymmetric primitives",
	}

	var hmacKey string
	hash := &cobra.Command{
		Use:   "hash TEXT",
		Short: "SHA-256 of TEXT, or HMAC-SHA-256 with --key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if hmacKey != "" {
				fmt.Fprintln(cmd.OutOrStdout(), crypt.HMAC([]byte(args[0]), []byte(hmacKey)).Hex())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), crypt.HashString(args[0]))
		},
	}
	hash.Flags().StringVar(&hmacKey, "key", "", "HMAC key")

	var (
		symKey  string
		symMode string
	)
	symOpts := func() ([]byte, crypt.SymmetricOptions, error) {
		key, err := hex.DecodeString(symKey)
		if err != nil {
			return nil, crypt.SymmetricOptions{}, fmt.Errorf("key must be hex: %w", err)
		}
		switch strings.ToLower(symMode) {
		case "cbc":
			return key, crypt.SymmetricOptions{Mode: crypt.ModeCBC}, nil
		case "ecb":
			return key, crypt.SymmetricOptions{Mode: crypt.ModeECB}, nil
		default:
			return nil, crypt.SymmetricOptions{}, fmt.Errorf("unknown mode %q", symMode)
		}
	}
	encrypt := &cobra.Command{
		Use:   "encrypt TEXT",
		Short: "AES-encrypt TEXT, printing hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, opts, err := symOpts()
			if err != nil {
				return err
			}
			ct, err := crypt.EncryptString(args[0], key, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ct)
			return nil
		},
	}
	decrypt := &cobra.Command{
		Use:   "decrypt HEX",
		Short: "AES-decrypt hex cipher text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, opts, err := symOpts()
			if err != nil {
				return err
			}
			pt, err := crypt.DecryptString(args[0], key, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pt)
			return nil
		},
	}
	for _, c := range []*cobra.Command{encrypt, decrypt} {
		c.Flags().StringVar(&symKey, "key", "", "AES key, hex (16, 24 or 32 bytes)")
		c.Flags().StringVar(&symMode, "mode", "cbc", "cbc or ecb")
		_ = c.MarkFlagRequired("key")
	}

	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a P-256 key pair for sealing and signing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := crypt.GenerateKeyPair()
			if err != nil {
				return err
			}
			priv, err := crypt.PrivateKeyHex(kp.Private)
			if err != nil {
				return err
			}
			pub, err := crypt.PublicKeyHex(kp.Public)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"private": priv, "public": pub})
		},
	}

	var privHex, pubHex, sigHex string
	sign := &cobra.Command{
		Use:   "sign TEXT",
		Short: "Sign TEXT with a private key, printing the hex signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := crypt.ParsePrivateKeyHex(privHex)
			if err != nil {
				return err
			}
			sig, err := crypt.Sign([]byte(args[0]), priv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sig))
			return nil
		},
	}
	sign.Flags().StringVar(&privHex, "private", "", "private key, hex")
	_ = sign.MarkFlagRequired("private")

	verify := &cobra.Command{
		Use:   "verify TEXT",
		Short: "Verify a hex signature over TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := crypt.ParsePublicKeyHex(pubHex)
			if err != nil {
				return err
			}
			sig, err := hex.DecodeString(sigHex)
			if err != nil {
				return fmt.Errorf("signature must be hex: %w", err)
			}
			if !crypt.Verify([]byte(args[0]), sig, pub) {
				return errors.New("signature does not verify")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	verify.Flags().StringVar(&pubHex, "public", "", "public key, hex")
	verify.Flags().StringVar(&sigHex, "sig", "", "signature, hex")
	_ = verify.MarkFlagRequired("public")
	_ = verify.MarkFlagRequired("sig")

	cmd.AddCommand(hash, encrypt, decrypt, keygen, sign, verify)
	return cmd
}
