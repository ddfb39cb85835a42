// Package commands implements the adm subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// PasswordPrompter reads a secret from the user without echoing it
type PasswordPrompter interface {
	Prompt(w io.Writer, label string) (string, error)
}

// TerminalPrompter prompts on the controlling terminal
type TerminalPrompter struct{}

// Prompt implements PasswordPrompter
func (TerminalPrompter) Prompt(w io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(w, label)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	_, _ = fmt.Fprintln(w) // New line after password input
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// PasswordCommand returns the password command, which prints a bcrypt hash for server.password_hash
func PasswordCommand(prompter PasswordPrompter, logger *observability.Logger) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Hash a password for server.password_hash",
		Long: `Prompt twice for a password and print its bcrypt hash.
Put the hash in server.password_hash (or SERVER_PASSWORD_HASH) to enable password login.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := hashPassword(prompter, cmd.ErrOrStderr(), cost)
			if err != nil {
				logger.Error(cmd.Context(), "Failed to hash password", err)
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")

	return cmd
}

func hashPassword(prompter PasswordPrompter, prompts io.Writer, cost int) (string, error) {
	if prompts == nil {
		prompts = os.Stderr
	}

	password, err := prompter.Prompt(prompts, "Enter password: ")
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	if password == "" {
		return "", contextutils.WrapError(contextutils.ErrMissingRequired, "password cannot be empty")
	}

	confirm, err := prompter.Prompt(prompts, "Confirm password: ")
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password confirmation: %v", err)
	}
	if password != confirm {
		return "", contextutils.WrapError(contextutils.ErrValidationFailed, "passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to hash password: %v", err)
	}
	return string(hash), nil
}
