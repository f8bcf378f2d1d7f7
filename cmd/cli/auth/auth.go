package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/crucial707/authsvc/cmd/cli/client"
	"github.com/crucial707/authsvc/cmd/cli/config"
	"github.com/crucial707/authsvc/cmd/cli/output"
	"github.com/crucial707/authsvc/internal/auth"
)

// InitAuth registers register, login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd())
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username, role string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			var resp struct {
				Message string `json:"message"`
			}
			payload := map[string]string{"username": username, "password": password, "role": role}
			if err := client.PostJSON(cmd.Context(), "/register", payload, &resp); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to register")
	cmd.Flags().StringVar(&role, "role", "", "Role to assign (defaults to USER)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			var resp struct {
				Message string `json:"message"`
				Token   string `json:"token"`
			}
			payload := map[string]string{"username": username, "password": password}
			if err := client.PostJSON(cmd.Context(), "/login", payload, &resp); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if resp.Token == "" {
				return errors.New("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Token stored locally.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to authenticate as")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.DeleteToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// ==========================
// Whoami
// ==========================

// whoamiCmd decodes the stored token locally. The signature is not checked;
// the CLI does not hold the signing key.
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity in the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}
			claims := &auth.Claims{}
			if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
				return fmt.Errorf("decode token: %w", err)
			}

			rows := [][]interface{}{
				{"Username", claims.Subject},
				{"User ID", claims.UserID},
				{"Role", claims.Role},
			}
			if claims.IssuedAt != nil {
				rows = append(rows, []interface{}{"Issued", claims.IssuedAt.Format(time.RFC3339)})
			}
			if claims.ExpiresAt != nil {
				state := "valid"
				if time.Now().After(claims.ExpiresAt.Time) {
					state = "expired"
				}
				rows = append(rows, []interface{}{"Expires", fmt.Sprintf("%s (%s)", claims.ExpiresAt.Format(time.RFC3339), state)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal, otherwise reads one line from the input.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
