package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"runtime"
	"runtime/debug"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// Version is the application version. Set at build time with
// -ldflags "-X todo/internal/commands.Version=...".
var Version = "0.1.0"

func init() {
	Register(GroupOther, &VersionCmd{})
}

// VersionCmd prints the version; with --verbose also the Go toolchain,
// the VCS revision and the configured remote.
type VersionCmd struct {
	verbose bool
}

func (c *VersionCmd) Name() string       { return "version" }
func (c *VersionCmd) Aliases() []string  { return nil }
func (c *VersionCmd) Synopsis() string   { return "Print version and build details" }
func (c *VersionCmd) Usage() string      { return "todo version [--verbose]" }
func (c *VersionCmd) NeedsService() bool { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

// SetVerbose enables build details (for testing).
func (c *VersionCmd) SetVerbose(v bool) {
	c.verbose = v
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "todo %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}

	fmt.Fprintf(out, "go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	revision := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
	}
	fmt.Fprintf(out, "revision: %s\n", revision)

	remote := "(not configured)"
	if cfg.RemoteURL != "" {
		remote = redactURL(cfg.RemoteURL)
	}
	fmt.Fprintf(out, "remote:   %s\n", remote)
	fmt.Fprintf(out, "config:   %s\n", cfg.Dir)
	return exitcode.Success
}

// redactURL hides the password of a remote URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}
