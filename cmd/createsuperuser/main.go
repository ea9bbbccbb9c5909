package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GTDGit/accounts_admin/internal/config"
	"github.com/GTDGit/accounts_admin/internal/database"
	"github.com/GTDGit/accounts_admin/internal/repository"
	"github.com/GTDGit/accounts_admin/internal/service"
)

// Terminal access, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var (
	email    string
	password string
)

var rootCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an active admin account",
	Long: `Creates a user account with is_active and is_admin set, so it can sign in
to the back-office API. Migrations are applied first.

Without --password the password is prompted for on a terminal, or read as
a single line from standard input when it is piped.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCreateSuperuser,
}

func init() {
	rootCmd.Flags().StringVar(&email, "email", "", "email address of the new admin")
	rootCmd.Flags().StringVar(&password, "password", "", "password of the new admin; visible in shell history, prefer the prompt")
	_ = rootCmd.MarkFlagRequired("email")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCreateSuperuser(cmd *cobra.Command, _ []string) error {
	pw := password
	if !cmd.Flags().Changed("password") {
		var err error
		if pw, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, cfg.Admin.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	svc := service.NewAdminAuthService(repository.NewUserAccountRepository(db), nil, nil)
	user, err := svc.CreateSuperuser(ctx, email, pw)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", user.Email, user.ID)
	return nil
}

// promptPassword reads the password from in. On a terminal it is read twice
// without echo and both entries must match.
func promptPassword(in io.Reader, w io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		first, err := readHidden(f, w, "Password: ")
		if err != nil {
			return "", err
		}
		second, err := readHidden(f, w, "Password (again): ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", errors.New("passwords do not match")
		}
		return first, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

func readHidden(f *os.File, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
