package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(GroupOther, &HelpCmd{})
}

// HelpCmd implements the help command. It lists the commands of its
// registry, DefaultRegistry when none is set.
type HelpCmd struct {
	registry *Registry
}

// SetRegistry sets the registry whose commands are listed (for testing).
func (c *HelpCmd) SetRegistry(r *Registry) {
	c.registry = r
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todo help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	r := c.registry
	if r == nil {
		r = DefaultRegistry
	}

	fmt.Fprint(out, "Usage:\n  todo [common flags] <command> [args]\n  todo                  Show all lists\n")
	for _, s := range r.Sections() {
		fmt.Fprintf(out, "\n%s:\n", s.Group)
		for _, cmd := range s.Commands {
			fmt.Fprintf(out, "  %s\n      %s", cmd.Usage(), cmd.Synopsis())
			if aliases := cmd.Aliases(); len(aliases) > 0 {
				fmt.Fprintf(out, " (alias: %s)", strings.Join(aliases, ", "))
			}
			fmt.Fprintln(out)
		}
	}
	fmt.Fprint(out, footer)
	return exitcode.Success
}

const footer = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TODO_REMOTE_URL    Remote store: postgres://..., sqlite:///path, s3://bucket/prefix, gtasks:
  TODO_PULL_POLICY   Default pull policy: replace (default) or merge
  TODO_ATOMIC_PUSH   Use a transactional push when the store supports it (default true)
  TODO_LOG_FILE      Log file path, or "off"
`
