package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/bookbuddy/internal/auth"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an API token and its API_TOKEN_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, hash, err := auth.GenerateAPIToken()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API token (shown once): %s\n", token)
			fmt.Fprintf(out, "API_TOKEN_HASH=%s\n", hash)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "hash",
		Short: "Hash an existing token read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}

			hash, err := auth.HashToken(token, auth.TokenHashCost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API_TOKEN_HASH=%s\n", hash)
			return nil
		},
	})
	return cmd
}

// readToken reads the token without echo from a terminal, or as the first
// line of piped input.
func readToken(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return validToken(string(raw))
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return validToken(line)
}

func validToken(s string) (string, error) {
	token := strings.TrimSpace(s)
	if token == "" {
		return "", errors.New("token must not be empty")
	}
	return token, nil
}
