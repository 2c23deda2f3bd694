// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package logging builds the structured loggers used by gpiopanel.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config describes the logging configuration.
type Config struct {
	// Level is the minimum level logged: debug, info, warn or error.
	Level string

	// Format is the log record format: text or json.
	Format string

	// Output is the path of the log file, or stderr or stdout.
	Output string

	// Modules overrides Level for particular modules.
	Modules map[string]string
}

// ErrInvalidFormat indicates the format is neither text nor json.
var ErrInvalidFormat = errors.New("invalid log format")

// Logging creates loggers sharing a common output.
type Logging struct {
	cfg   Config
	w     io.Writer
	c     io.Closer
	level *slog.LevelVar
	root  *slog.Logger

	// mutex covers the attributes below it.
	mu      sync.Mutex
	modules map[string]*slog.Logger
}

// New creates the loggers described by the configuration.
//
// Log files are opened for append and created if necessary.
func New(cfg Config) (*Logging, error) {
	var w io.Writer
	var c io.Closer
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
		c = f
	}
	l, err := NewWithWriter(cfg, w)
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, err
	}
	l.c = c
	return l, nil
}

// NewWithWriter creates the loggers described by the configuration, writing
// to w rather than cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) (*Logging, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, cfg.Format)
	}
	for m, ml := range cfg.Modules {
		if _, err := ParseLevel(ml); err != nil {
			return nil, fmt.Errorf("module %s: %w", m, err)
		}
	}
	l := Logging{
		cfg:     cfg,
		w:       w,
		level:   &slog.LevelVar{},
		modules: make(map[string]*slog.Logger),
	}
	l.level.Set(lvl)
	l.root = slog.New(l.handler(l.level))
	return &l, nil
}

// Logger returns the root logger.
func (l *Logging) Logger() *slog.Logger {
	return l.root
}

// Module returns the logger for the named module, creating it if necessary.
//
// Records from the module logger carry a module attribute.
func (l *Logging) Module(name string) *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ml, ok := l.modules[name]; ok {
		return ml
	}
	var lv slog.Leveler = l.level
	if s, ok := l.cfg.Modules[name]; ok {
		// validated in NewWithWriter
		lvl, _ := ParseLevel(s)
		lv = lvl
	}
	ml := slog.New(l.handler(lv)).With("module", name)
	l.modules[name] = ml
	return ml
}

// SetLevel changes the level of the root logger and of any module loggers
// without an override.
func (l *Logging) SetLevel(lvl slog.Level) {
	l.level.Set(lvl)
}

// Close closes the log file, if any.
func (l *Logging) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

func (l *Logging) handler(lv slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: lv}
	if strings.ToLower(l.cfg.Format) == "json" {
		return slog.NewJSONHandler(l.w, opts)
	}
	return slog.NewTextHandler(l.w, opts)
}

// ParseLevel converts a level name into a slog.Level.
//
// An empty name is info.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// Discard returns a logger that discards all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
