package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/testutil"
)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	var s service.Service
	if svc != nil {
		s = svc
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expectCode(t *testing.T, want, got int, stderr string) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d (stderr %q)", want, got, stderr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	for _, c := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "todo "+c.Name()) {
			t.Errorf("help output does not mention %q", c.Name())
		}
	}
}

func TestVersionCommand_Verbose(t *testing.T) {
	cmd := &commands.VersionCmd{}
	cmd.SetVerbose(true)

	var out, errOut bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir(), RemoteURL: "postgres://todo:secret@db/todo"}
	code := cmd.Run(context.Background(), cfg, nil, nil, &out, &errOut)

	expectCode(t, exitcode.Success, code, errOut.String())
	stdout := out.String()
	if !strings.HasPrefix(stdout, "todo 0.1.0\n") {
		t.Errorf("expected version first, got %q", stdout)
	}
	if !strings.Contains(stdout, "go:") || !strings.Contains(stdout, "revision:") {
		t.Errorf("expected build details, got %q", stdout)
	}
	if strings.Contains(stdout, "secret") {
		t.Errorf("password leaked: %q", stdout)
	}
	if !strings.Contains(stdout, "remote:   postgres://todo:xxxxx@db/todo") {
		t.Errorf("expected redacted remote, got %q", stdout)
	}
}

func TestHelpCommand_GroupsBySection(t *testing.T) {
	r := commands.NewRegistry()
	for _, reg := range []struct {
		group commands.Group
		cmd   commands.Command
	}{
		{commands.GroupSync, &commands.PushCmd{}},
		{commands.GroupLists, &commands.ShowCmd{}},
		{commands.GroupAccount, &commands.LoginCmd{}},
		{commands.GroupLists, &commands.AddCmd{}},
	} {
		if err := r.Register(reg.group, reg.cmd); err != nil {
			t.Fatalf("register %s: %v", reg.cmd.Name(), err)
		}
	}
	cmd := &commands.HelpCmd{}
	cmd.SetRegistry(r)

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	order := []string{"Lists:", "todo add", "todo show", "(alias: list)", "Sync:", "todo push", "Account:", "todo login", "Environment:"}
	last := -1
	for _, want := range order {
		i := strings.Index(stdout, want)
		if i < 0 {
			t.Fatalf("help output missing %q:\n%s", want, stdout)
		}
		if i < last {
			t.Errorf("%q out of order:\n%s", want, stdout)
		}
		last = i
	}
	if strings.Contains(stdout, "Other:") {
		t.Error("empty sections should be omitted")
	}
}

func TestRegistry_NameClash(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(commands.GroupLists, &commands.ShowCmd{}); err != nil {
		t.Fatal(err)
	}

	// "list" is an alias of show
	err := r.Register(commands.GroupLists, &aliasCmd{VersionCmd: commands.VersionCmd{}, alias: "list"})
	if err == nil || !strings.Contains(err.Error(), `"list"`) {
		t.Fatalf("expected alias clash, got %v", err)
	}
	if _, ok := r.Find("version"); ok {
		t.Error("a rejected command must not be registered")
	}
	if got := len(r.All()); got != 1 {
		t.Errorf("expected 1 command, got %d", got)
	}
}

type aliasCmd struct {
	commands.VersionCmd
	alias string
}

func (c *aliasCmd) Aliases() []string { return []string{c.alias} }

// Tests for lists command
func TestListsCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Work", "report", "email")
	svc.AddList("Groceries", "milk")
	svc.Complete("Work", 1)

	stdout, stderr, code := runCommand(t, &commands.ListsCmd{}, svc, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	expected := "Groceries (0/1)\nWork (1/2)\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListsCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListsErr = service.StorageError("disk gone")

	_, stderr, code := runCommand(t, &commands.ListsCmd{}, svc, nil, false)

	expectCode(t, exitcode.StorageError, code, stderr)
	if stderr != "error: storage error: disk gone\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for show command
func TestShowCommand_AllLists(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk", "eggs")
	svc.AddList("Work", "report")
	svc.Complete("Groceries", 2)

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, svc, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	testutil.GoldenString(t, "show_all", stdout)
}

func TestShowCommand_Filters(t *testing.T) {
	tests := []struct {
		name       string
		completed  bool
		incomplete bool
		want       string
	}{
		{"completed", true, false, "   2  [x] eggs\n"},
		{"incomplete", false, true, "   1  [ ] milk\n   3  [ ] bread\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddList("Groceries", "milk", "eggs", "bread")
			svc.Complete("Groceries", 2)

			cmd := &commands.ShowCmd{}
			cmd.SetFilter(tt.completed, tt.incomplete)
			stdout, stderr, code := runCommand(t, cmd, svc, []string{"Groceries"}, false)

			expectCode(t, exitcode.Success, code, stderr)
			header := "------------\nGroceries (1/3)\n------------\n"
			if stdout != header+tt.want {
				t.Errorf("expected %q, got %q", header+tt.want, stdout)
			}
		})
	}
}

func TestShowCommand_ConflictingFilters(t *testing.T) {
	cmd := &commands.ShowCmd{}
	cmd.SetFilter(true, true)

	_, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	expectCode(t, exitcode.UserError, code, stderr)
}

func TestShowCommand_Empty(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, testutil.NewFakeService(), nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "no lists found\n" {
		t.Errorf("expected %q, got %q", "no lists found\n", stdout)
	}
}

func TestShowCommand_EmptyQuiet(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, testutil.NewFakeService(), nil, true)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "" {
		t.Errorf("expected empty stdout in quiet mode, got %q", stdout)
	}
}

func TestShowCommand_ListNotFound(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, testutil.NewFakeService(), []string{"Nope"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: list not found: Nope\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand_CaseInsensitiveMatch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk")

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, svc, []string{"groceries"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if !strings.Contains(stdout, "Groceries (0/1)") {
		t.Errorf("expected Groceries section, got %q", stdout)
	}
}

func TestShowCommand_AmbiguousName(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Work")
	svc.AddList("WORK")

	_, stderr, code := runCommand(t, &commands.ShowCmd{}, svc, []string{"work"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if !strings.Contains(stderr, "ambiguous list name: work") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_ExistingList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk")

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Groceries", "free", "range", "eggs"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	l, _ := svc.Snapshot("Groceries")
	want := []service.Item{{Description: "milk"}, {Description: "free range eggs"}}
	if !service.EqualItems(l.Items, want) {
		t.Errorf("expected %v, got %v", want, l.Items)
	}
}

func TestAddCommand_CreatesMissingList(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Groceries", "milk"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	l, ok := svc.Snapshot("Groceries")
	if !ok || len(l.Items) != 1 || l.Items[0].Description != "milk" {
		t.Errorf("expected new list with one item, got %+v (exists %v)", l, ok)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, testutil.NewFakeService(), []string{"A", "x"}, true)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "" {
		t.Errorf("expected empty stdout in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_MissingArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"none", nil, "error: list name required\n"},
		{"no description", []string{"Groceries"}, "error: description required\n"},
		{"blank description", []string{"Groceries", " "}, "error: description required\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.AddCmd{}, testutil.NewFakeService(), tt.args, false)

			expectCode(t, exitcode.UserError, code, stderr)
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestAddCommand_StorageError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("A")
	svc.AddItemErr = service.StorageError("read-only file system")

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"A", "x"}, false)

	expectCode(t, exitcode.StorageError, code, stderr)
}

// Tests for createlist command
func TestCreateListCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.CreateListCmd{}, svc, []string{"Weekend", "chores"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if _, ok := svc.Snapshot("Weekend chores"); !ok {
		t.Error("expected list to be created")
	}
}

func TestCreateListCommand_AlreadyExists(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Work", "report")

	_, stderr, code := runCommand(t, &commands.CreateListCmd{}, svc, []string{"Work"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: list already exists: Work\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	l, _ := svc.Snapshot("Work")
	if len(l.Items) != 1 {
		t.Error("existing list must not be overwritten")
	}
}

func TestCreateListCommand_NoName(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.CreateListCmd{}, testutil.NewFakeService(), nil, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: list name required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for complete and incomplete commands
func TestCompleteCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk", "eggs")

	stdout, stderr, code := runCommand(t, &commands.CompleteCmd{}, svc, []string{"Groceries", "2"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	l, _ := svc.Snapshot("Groceries")
	if l.Items[0].Completed || !l.Items[1].Completed {
		t.Errorf("expected only item 2 completed, got %+v", l.Items)
	}
}

func TestIncompleteCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk")
	svc.Complete("Groceries", 1)

	_, stderr, code := runCommand(t, &commands.IncompleteCmd{}, svc, []string{"Groceries", "1"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	l, _ := svc.Snapshot("Groceries")
	if l.Items[0].Completed {
		t.Error("expected item to be incomplete")
	}
}

func TestCompleteCommand_OutOfRange(t *testing.T) {
	for _, n := range []string{"0", "-1", "4"} {
		t.Run(n, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddList("Groceries", "milk", "eggs", "bread")

			_, stderr, code := runCommand(t, &commands.CompleteCmd{}, svc, []string{"Groceries", n}, false)

			expectCode(t, exitcode.UserError, code, stderr)
			want := "error: item " + n + " not found in list \"Groceries\"\n"
			if stderr != want {
				t.Errorf("expected %q, got %q", want, stderr)
			}
		})
	}
}

func TestCompleteCommand_BadRef(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "error: list name and item number required\n"},
		{"no number", []string{"Groceries"}, "error: list name and item number required\n"},
		{"not a number", []string{"Groceries", "two"}, "error: invalid item number: two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.CompleteCmd{}, testutil.NewFakeService(), tt.args, false)

			expectCode(t, exitcode.UserError, code, stderr)
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

// Tests for rm command
func TestRmCommand_Item(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk", "eggs", "bread")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"Groceries", "2"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	l, _ := svc.Snapshot("Groceries")
	want := []service.Item{{Description: "milk"}, {Description: "bread"}}
	if !service.EqualItems(l.Items, want) {
		t.Errorf("expected %v, got %v", want, l.Items)
	}
}

func TestRmCommand_List(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk")
	svc.AddList("Work")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"Groceries"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if _, ok := svc.Snapshot("Groceries"); ok {
		t.Error("expected list removed")
	}
	if _, ok := svc.Snapshot("Work"); !ok {
		t.Error("other lists must remain")
	}
}

func TestRmCommand_AllWithForce(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("A", "x")
	svc.AddList("B")

	cmd := &commands.RmCmd{}
	cmd.SetForce(true)
	cmd.SetConfirm(func(string) (bool, error) {
		t.Fatal("--force must not prompt")
		return false, nil
	})
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	lists, _ := svc.Lists(context.Background())
	if len(lists) != 0 {
		t.Errorf("expected no lists, got %v", lists)
	}
}

func TestRmCommand_AllConfirm(t *testing.T) {
	tests := []struct {
		name      string
		answer    bool
		err       error
		wantCode  int
		wantLists int
	}{
		{"yes", true, nil, exitcode.Success, 0},
		{"no", false, nil, exitcode.Success, 1},
		{"prompt failure", false, errors.New("no tty"), exitcode.UserError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddList("A", "x")

			cmd := &commands.RmCmd{}
			var asked string
			cmd.SetConfirm(func(prompt string) (bool, error) {
				asked = prompt
				return tt.answer, tt.err
			})
			_, stderr, code := runCommand(t, cmd, svc, nil, false)

			expectCode(t, tt.wantCode, code, stderr)
			if asked == "" {
				t.Error("expected a confirmation prompt")
			}
			lists, _ := svc.Lists(context.Background())
			if len(lists) != tt.wantLists {
				t.Errorf("expected %d lists, got %d", tt.wantLists, len(lists))
			}
		})
	}
}

func TestRmCommand_ItemOutOfRange(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Groceries", "milk")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"Groceries", "5"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	l, _ := svc.Snapshot("Groceries")
	if len(l.Items) != 1 {
		t.Error("list must be unchanged")
	}
}

// Tests for rmlist command
func TestRmListCommand_EmptyListSuccess(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Empty")

	stdout, stderr, code := runCommand(t, &commands.RmListCmd{}, svc, []string{"Empty"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
}

func TestRmListCommand_NonEmptyListNoForce(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Work", "report")

	_, stderr, code := runCommand(t, &commands.RmListCmd{}, svc, []string{"Work"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: list not empty (use --force)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, ok := svc.Snapshot("Work"); !ok {
		t.Error("list must not be removed")
	}
}

func TestRmListCommand_NonEmptyListWithForce(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("Work", "report")

	cmd := &commands.RmListCmd{}
	cmd.SetForce(true)
	_, stderr, code := runCommand(t, cmd, svc, []string{"Work"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if _, ok := svc.Snapshot("Work"); ok {
		t.Error("expected list removed")
	}
}

func TestRmListCommand_ListNotFound(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmListCmd{}, testutil.NewFakeService(), []string{"Nope"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: list not found: Nope\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmListCommand_NoName(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmListCmd{}, testutil.NewFakeService(), nil, false)

	expectCode(t, exitcode.UserError, code, stderr)
}
