package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"onefine/internal/storefront"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	envAPIURL    = "ONEFINE_API_URL"
	envTokenFile = "ONEFINE_TOKEN_FILE"
	envPassword  = "ONEFINE_ADMIN_PASSWORD"

	defaultAPIURL = "http://localhost:4000"
)

// app carries the state shared by every subcommand.
type app struct {
	apiURL    string
	tokenFile string
	timeout   time.Duration
	verbose   bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: os.Stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage the onefine product catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional; flags and real environment variables still win
			_ = godotenv.Load()

			if !cmd.Flags().Changed("api") {
				if v := os.Getenv(envAPIURL); v != "" {
					a.apiURL = v
				}
			}
			if a.tokenFile == "" {
				a.tokenFile = defaultTokenFile()
			}

			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().
				Timestamp().
				Logger()
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", defaultAPIURL, "API base URL (env "+envAPIURL+")")
	flags.StringVar(&a.tokenFile, "token-file", os.Getenv(envTokenFile), "where the session token is kept")
	flags.DurationVar(&a.timeout, "timeout", 15*time.Second, "per-command timeout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newListCommand(a),
		newAddCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newUploadCommand(a),
	)

	return root
}

func (a *app) client() (*storefront.Client, error) {
	return storefront.NewClient(a.apiURL, storefront.WithLogger(a.logger))
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// defaultTokenFile is $XDG_CONFIG_HOME/onefine/token or the user config dir equivalent.
func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".onefine-token"
	}
	return filepath.Join(dir, "onefine", "token")
}

func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(a.tokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (a *app) loadToken() (string, error) {
	raw, err := os.ReadFile(a.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.New("not signed in: run catalogctl login")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("not signed in: run catalogctl login")
	}
	return token, nil
}

func (a *app) clearToken() error {
	err := os.Remove(a.tokenFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// readPassword returns the password from the flag, the environment or the first stdin line.
func (a *app) readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envPassword); v != "" {
		return v, nil
	}

	fmt.Fprint(a.stderr, "Password: ")
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// explain turns an expired-session error into a hint.
func explain(err error) error {
	if storefront.IsUnauthorised(err) {
		return fmt.Errorf("%w (sign in again with catalogctl login)", err)
	}
	return err
}
