// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"todo/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// Styles decorates output written to a terminal. The zero value prints
// plain text.
type Styles struct {
	enabled bool
	header  lipgloss.Style
	done    lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
}

// Plain returns styles that add no escape sequences.
func Plain() Styles {
	return Styles{}
}

// StylesFor returns terminal styles when w is a terminal and NO_COLOR is
// unset, and plain styles otherwise.
func StylesFor(w io.Writer) Styles {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || os.Getenv("NO_COLOR") != "" {
		return Plain()
	}
	r := lipgloss.NewRenderer(w)
	return Styles{
		enabled: true,
		header:  r.NewStyle().Bold(true),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		dim:     r.NewStyle().Faint(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (s Styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// Filter selects which items FormatList prints.
type Filter int

const (
	// FilterAll prints every item.
	FilterAll Filter = iota
	// FilterCompleted prints completed items only.
	FilterCompleted
	// FilterIncomplete prints incomplete items only.
	FilterIncomplete
)

func (f Filter) keep(it service.Item) bool {
	switch f {
	case FilterCompleted:
		return it.Completed
	case FilterIncomplete:
		return !it.Completed
	default:
		return true
	}
}

// FormatList prints a list section. Items keep their position numbers
// when a filter hides some of them.
func FormatList(w io.Writer, s Styles, l service.List, f Filter) {
	FormatListHeader(w, s, l.Name, l.Done(), len(l.Items))
	for i, it := range l.Items {
		if f.keep(it) {
			FormatItem(w, s, i+1, it)
		}
	}
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, s Styles, name string, done, total int) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%s %s\n", s.render(s.header, normalizeTitle(name)), s.render(s.dim, fmt.Sprintf("(%d/%d)", done, total)))
	fmt.Fprintln(w, ListSeparator)
}

// FormatItem formats an item line.
// Format: "{N:>4}  [x] {DESCRIPTION}\n"
func FormatItem(w io.Writer, s Styles, num int, it service.Item) {
	mark := "[ ]"
	desc := normalizeTitle(it.Description)
	if it.Completed {
		mark = "[x]"
		desc = s.render(s.done, desc)
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, mark, desc)
}

// FormatListName formats a list name for the lists command.
func FormatListName(w io.Writer, s Styles, l service.List) {
	fmt.Fprintf(w, "%s %s\n", normalizeTitle(l.Name), s.render(s.dim, fmt.Sprintf("(%d/%d)", l.Done(), len(l.Items))))
}

// FormatStatus formats the sync status.
func FormatStatus(w io.Writer, s Styles, st service.SyncStatus) {
	if st.Dirty {
		fmt.Fprintln(w, s.render(s.warn, "local changes not pushed"))
	} else {
		fmt.Fprintln(w, "in sync")
	}
	if st.LastModified.IsZero() {
		fmt.Fprintln(w, "last push: never")
		return
	}
	fmt.Fprintf(w, "last push: %s\n", st.LastModified.UTC().Format(time.RFC3339))
}

// FormatSync formats the counters of a push or pull.
func FormatSync(w io.Writer, verb string, r service.SyncResult) {
	fmt.Fprintf(w, "%s %d lists, %d items", verb, r.Lists, r.Items)
	if r.Created+r.Updated+r.Kept > 0 {
		fmt.Fprintf(w, " (%d created, %d updated, %d kept local)", r.Created, r.Updated, r.Kept)
	}
	fmt.Fprintln(w)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
