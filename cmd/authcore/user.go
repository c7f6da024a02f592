package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore/store/postgres"
)

// NewUserCmd creates the user subcommand group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user in the PostgreSQL store",
		Long: `Create a user with a freshly salted Argon2id hash. The password is read
from the first line of standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: runUserAdd,
	}
	cmd.Flags().String("database-url", "", "postgres DSN")
	addEngineFlags(cmd.Flags())
	return cmd
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}

	username := strings.TrimSpace(args[0])
	if username == "" {
		return oops.Code("INVALID_ARGUMENT").Errorf("username must not be empty")
	}

	secret, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}

	hash, salt, err := derive(cfg.passwordSettings(), secret)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, connectAttempts)
	if err != nil {
		return err
	}
	defer pool.Close()

	id, err := postgres.New(pool).CreateUser(ctx, username, hash, salt)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").With("username", username).Wrap(err)
	}

	cmd.Printf("created user %s (id %s)\n", username, id)
	return nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INVALID_ARGUMENT").Wrapf(err, "read password")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", oops.Code("INVALID_ARGUMENT").Errorf("password must not be empty")
	}
	return line, nil
}
