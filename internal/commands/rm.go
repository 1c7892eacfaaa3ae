package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &RmCmd{})
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) (bool, error)

// RmCmd implements the rm command.
//
//	todo rm <list> <n>   remove one item
//	todo rm <list>       remove a list
//	todo rm              remove every list
type RmCmd struct {
	force   bool
	confirm ConfirmFunc
}

// SetForce sets the force flag (for testing).
func (c *RmCmd) SetForce(force bool) {
	c.force = force
}

// SetConfirm replaces the interactive prompt (for testing).
func (c *RmCmd) SetConfirm(fn ConfirmFunc) {
	c.confirm = fn
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return nil }
func (c *RmCmd) Synopsis() string   { return "Remove an item, a list or all lists" }
func (c *RmCmd) Usage() string      { return "todo rm [--force] [<list-name> [<n>]]" }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	switch len(args) {
	case 0:
		return c.removeAll(ctx, cfg, svc, out, errOut)
	case 1:
		name := listName(args)
		if name == "" {
			return usageError(errOut, "list name required")
		}
		l, err := resolveList(ctx, svc, name)
		if err != nil {
			return fail(errOut, err)
		}
		if err := svc.RemoveList(ctx, l.Name); err != nil {
			return fail(errOut, err)
		}
		return ok(cfg, out)
	default:
		ref, err := ParseItemRef(args)
		if err != nil {
			return usageError(errOut, err.Error())
		}
		l, err := resolveList(ctx, svc, ref.List)
		if err != nil {
			return fail(errOut, err)
		}
		if err := svc.RemoveItem(ctx, l.Name, ref.N); err != nil {
			return fail(errOut, err)
		}
		return ok(cfg, out)
	}
}

func (c *RmCmd) removeAll(ctx context.Context, cfg *config.Config, svc service.Service, out, errOut io.Writer) int {
	if !c.force {
		confirm := c.confirm
		if confirm == nil {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return usageError(errOut, "refusing to remove all lists without --force")
			}
			confirm = promptConfirm
		}
		yes, err := confirm("Remove all lists?")
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return usageError(errOut, "cancelled")
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if !yes {
			if !cfg.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.Success
		}
	}

	if err := svc.RemoveAllLists(ctx); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

func promptConfirm(prompt string) (bool, error) {
	var yes bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&yes).
		Run()
	return yes, err
}
