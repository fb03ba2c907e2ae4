/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/services"
	"github.com/expensely/ledger/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAddUserCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Register a user from the command line",
		Long: `Registers a user directly against the configured database. Usage:

	ledger adduser --email ann@example.com --name Ann

The password is prompted for when --password is omitted.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("missing required flag: --email")
			}
			if strings.TrimSpace(name) == "" {
				name = strings.SplitN(email, "@", 2)[0]
			}

			out := cmd.OutOrStdout()
			if password == "" {
				fmt.Fprint(out, "Password: ")
				var err error
				password, err = readPassword(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				fmt.Fprintln(out)
			}
			if strings.TrimSpace(password) == "" {
				return errors.New("password cannot be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AutoMigrate {
				if err := db.MigrateUp(cfg); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			conn, err := db.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()
			dialect, err := db.DialectFor(cfg.Database.Driver)
			if err != nil {
				return err
			}

			users := services.NewUserService(conn, dialect, services.BcryptHasher{Cost: cfg.BcryptCost}, nil)
			user, err := users.Register(cmd.Context(), types.Registration{Name: name, Email: email, Password: password})
			if errors.Is(err, types.ErrDuplicateAccount) {
				return fmt.Errorf("user %s already exists", email)
			}
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Fprintf(out, "User %s created successfully with ID %d\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email's local part)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted for when omitted)")
	return cmd
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func init() {
	rootCmd.AddCommand(newAddUserCmd())
}
