package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(GroupAccount, &LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	opts []auth.LoginOption
}

// SetLoginOptions passes extra options to auth.Login (for testing).
func (c *LoginCmd) SetLoginOptions(opts ...auth.LoginOption) {
	c.opts = opts
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Authenticate with Google" }
func (c *LoginCmd) Usage() string      { return "todo login [common flags]" }
func (c *LoginCmd) NeedsService() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		printClientSetup(cfg, errOut)
		return exitcode.AuthError
	}

	if cfg.HasToken() && auth.TokenValid(ctx, cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	oc, err := auth.OAuthConfig(cfg)
	if err != nil {
		return fail(errOut, err)
	}

	opts := append([]auth.LoginOption{auth.WithPrompt(errOut)}, c.opts...)
	token, err := auth.Login(ctx, oc, opts...)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := auth.SaveToken(cfg.TokenPath(), token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	return ok(cfg, out)
}

func printClientSetup(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: no OAuth client configured in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To sync with Google Tasks, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "3. Create an OAuth client ID of type 'Desktop app'")
	fmt.Fprintf(errOut, "4. Either set %s and %s,\n", config.KeyClientID, config.KeyClientSecret)
	fmt.Fprintf(errOut, "   or save the downloaded JSON as %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'todo login' again.")
}
