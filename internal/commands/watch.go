package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/watch"
)

func init() {
	Register(GroupSync, &WatchCmd{})
}

// WatchCmd implements the watch command.
type WatchCmd struct {
	debounce time.Duration
}

// SetDebounce sets the debounce interval (for testing).
func (c *WatchCmd) SetDebounce(d time.Duration) {
	c.debounce = d
}

func (c *WatchCmd) Name() string       { return "watch" }
func (c *WatchCmd) Aliases() []string  { return nil }
func (c *WatchCmd) Synopsis() string   { return "Push automatically after local changes" }
func (c *WatchCmd) Usage() string      { return "todo watch [--debounce <duration>]" }
func (c *WatchCmd) NeedsService() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.DurationVar(&c.debounce, "debounce", watch.DefaultDebounce, "")
}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	target, supported := svc.(watch.Target)
	if !supported {
		fmt.Fprintln(errOut, "error: watch is not supported by this service")
		return exitcode.UserError
	}
	if c.debounce <= 0 {
		c.debounce = watch.DefaultDebounce
	}

	w := watch.New(cfg.Dir, target,
		watch.WithDebounce(c.debounce),
		watch.WithLogger(logging.FromContext(ctx)),
		watch.WithNotify(func(result service.SyncResult, err error) {
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return
			}
			if !cfg.Quiet {
				output.FormatSync(out, "pushed", result)
			}
		}),
	)
	if !cfg.Quiet {
		fmt.Fprintf(out, "watching %s (Ctrl-C to stop)\n", cfg.Dir)
	}
	if err := w.Run(ctx); err != nil {
		return fail(errOut, err)
	}
	return exitcode.Success
}
