package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/password"
)

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print a salt and Argon2id hash for a password",
		Long: `Read a password from the first line of standard input and print a fresh
salt and its hash, for provisioning users in an external store.`,
		RunE: runHash,
	}
	addEngineFlags(cmd.Flags())
	return cmd
}

func runHash(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}
	secret, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}

	hash, salt, err := derive(cfg.passwordSettings(), secret)
	if err != nil {
		return err
	}
	cmd.Printf("salt: %s\nhash: %s\n", salt, hash)
	return nil
}

func derive(cfg authcore.PasswordConfig, secret string) (hash, salt string, err error) {
	verifier, err := password.NewVerifier(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		return "", "", oops.Code("CONFIG_INVALID").Wrap(err)
	}
	salt, err = verifier.NewSalt()
	if err != nil {
		return "", "", oops.Code("SALT_FAILED").Wrap(err)
	}
	return verifier.Derive(secret, salt), salt, nil
}
