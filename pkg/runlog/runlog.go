// Package runlog is the slog handler of a pipeline run: every record goes to the console,
// colored by level, and to a plain-text log file that is opened and closed per record.
package runlog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

// LevelStage is used for the banners that open and close a stage.
const LevelStage = slog.Level(2)

const (
	timeLayout = "2006-01-02 15:04:05"
	ansiReset  = "\x1b[0m"
)

// Options configures a Handler.
type Options struct {
	// Level is the minimum level handled. Defaults to slog.LevelInfo.
	Level slog.Leveler
	// Color enables ANSI colors on the console.
	Color bool
	// Now overrides the record time when set.
	Now func() time.Time
}

// Handler implements slog.Handler.
type Handler struct {
	mu      *sync.Mutex
	console io.Writer
	logPath string
	opts    Options
	palette map[slog.Level]string
	prefix  string
	attrs   string
}

// NewHandler writes to console and appends to the file at logPath. An empty logPath
// disables the file.
func NewHandler(console io.Writer, logPath string, opts *Options) *Handler {
	h := &Handler{
		mu:      &sync.Mutex{},
		console: console,
		logPath: logPath,
		palette: palette(),
	}

	if opts != nil {
		h.opts = *opts
	}

	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}

	return h
}

func palette() map[slog.Level]string {
	shades := map[slog.Level][3]uint8{
		slog.LevelDebug: {128, 128, 128},
		LevelStage:      {0, 175, 215},
		slog.LevelWarn:  {255, 215, 0},
		slog.LevelError: {255, 0, 0},
	}

	out := make(map[slog.Level]string, len(shades))
	for level, rgb := range shades {
		c, err := colors.RGB(rgb[0], rgb[1], rgb[2])
		if err != nil {
			continue
		}

		out[level] = fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	}

	return out
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line := h.format(r)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.console != nil {
		colored := line
		if code, ok := h.palette[r.Level]; ok && h.opts.Color && line != "" {
			colored = code + line + ansiReset
		}

		_, err := io.WriteString(h.console, colored+"\n")
		if err != nil {
			return errors.Wrap(err, "unable to write to console")
		}
	}

	if h.logPath == "" {
		return nil
	}

	return appendLine(h.logPath, line)
}

func appendLine(path, line string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // log is readable by the team
	if err != nil {
		return errors.Wrapf(err, "unable to open log file %s", path)
	}

	_, err = io.WriteString(file, line+"\n")
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to write log file %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close log file %s", path)
}

// format renders a record. An empty message without attributes is a blank separator line.
func (h *Handler) format(r slog.Record) string {
	var buf bytes.Buffer

	buf.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.prefix, a)

		return true
	})

	if r.Message == "" && buf.Len() == 0 {
		return ""
	}

	at := r.Time
	if h.opts.Now != nil {
		at = h.opts.Now()
	}

	if at.IsZero() {
		at = time.Now()
	}

	head := at.Format(timeLayout) + " " + r.Message
	if r.Level >= slog.LevelWarn {
		head = at.Format(timeLayout) + " [" + r.Level.String() + "] " + r.Message
	}

	return head + buf.String()
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, sub := range a.Value.Group() {
			writeAttr(buf, group, sub)
		}

		return
	}

	value := a.Value.String()
	if value == "" || strings.ContainsAny(value, " \t\n\"=") {
		value = strconv.Quote(value)
	}

	buf.WriteString(" " + prefix + a.Key + "=" + value)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	for _, a := range attrs {
		writeAttr(&buf, h.prefix, a)
	}

	clone := *h
	clone.attrs = h.attrs + buf.String()

	return &clone
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.prefix = h.prefix + name + "."

	return &clone
}

// FileName is the log file of a run started at t, inside dir.
func FileName(dir string, t time.Time) string {
	return filepath.Join(dir, "log_amplicon_"+t.Format("20060102")+".log")
}

// FormatElapsed renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatElapsed(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}

	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

var _ slog.Handler = (*Handler)(nil)
