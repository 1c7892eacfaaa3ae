package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Stderr receives human-readable records. Nil disables the terminal handler.
	Stderr io.Writer

	// Debug lowers every handler to slog.LevelDebug.
	Debug bool

	// File is the rotated JSON log path. Empty disables file logging.
	File string

	// Journal adds a systemd journal handler. Set when JOURNAL_STREAM is present.
	Journal bool
}

const (
	logMaxSizeMB  = 1
	logMaxBackups = 3
)

// New builds a fan-out logger from opts. The returned closer releases the
// log file and must be called before exit.
func New(opts Options) (*SlogLogger, io.Closer) {
	var handlers []slog.Handler

	terminalLevel := new(slog.LevelVar)
	terminalLevel.Set(slog.LevelWarn)
	fileLevel := new(slog.LevelVar)
	fileLevel.Set(slog.LevelInfo)
	if opts.Debug {
		terminalLevel.Set(slog.LevelDebug)
		fileLevel.Set(slog.LevelDebug)
	}

	var terminalHandler slog.Handler
	if opts.Stderr != nil {
		terminalHandler = slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{
			Level: terminalLevel,
		})
		handlers = append(handlers, terminalHandler)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
		}
		closer = rotator
		handlers = append(handlers, slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level: fileLevel,
		}))
	}

	if opts.Journal {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: fileLevel,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if terminalHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
				record.Add("error", err)
				_ = terminalHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return NewSlogLogger(slog.New(slogmulti.Fanout(handlers...))), closer
}

// UnderJournal reports whether stderr is connected to the systemd journal.
func UnderJournal() bool {
	return os.Getenv("JOURNAL_STREAM") != ""
}

// toJournalKey maps an attribute key to the journal field alphabet.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
