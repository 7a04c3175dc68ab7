//  Copyright (c) 2026 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trace implements the debug event log of OwnAway: one JSON object per line, recording IR
// dumps, computed summaries, cache snapshots and skipped functions. The log is purely
// observational and never read back by the analyzer. A nil *Sink discards every event.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/summary"
)

// Event names, stored under the "msg" key of every line.
const (
	EventIR      = "ir"
	EventSummary = "summary"
	EventCache   = "cache"
	EventSkip    = "skip"
)

// Sink writes trace events. It is safe for concurrent use.
type Sink struct {
	// mu serializes the writes of the handler with Flush and Close: a compressed stream is not
	// safe for concurrent use.
	mu      sync.Mutex
	logger  *slog.Logger
	closers []io.Closer
}

// lockedWriter writes to w while holding mu.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// New returns a sink writing JSON lines to w. Closing the sink does not close w.
func New(w io.Writer) *Sink {
	s := &Sink{}
	h := slog.NewJSONHandler(lockedWriter{mu: &s.mu, w: w}, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps make traces of identical runs differ.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	s.logger = slog.New(h)
	return s
}

// Open creates (or truncates) the file at path and returns a sink writing to it. Paths ending in
// ".s2" are written as an s2 stream. An empty path yields a nil sink.
func Open(path string) (*Sink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace sink: %w", err)
	}
	if !strings.HasSuffix(path, ".s2") {
		s := New(f)
		s.closers = []io.Closer{f}
		return s, nil
	}
	w := s2.NewWriter(f)
	s := New(w)
	// The compressed stream must be flushed before the file is closed.
	s.closers = []io.Closer{w, f}
	return s, nil
}

// Flush writes the buffered part of a compressed stream through to the file. Sinks shared across
// packages are flushed once a package is done, since they are only closed at exit.
func (s *Sink) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, c := range s.closers {
		if f, ok := c.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes the underlying writers opened by Open.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) log(msg string, attrs ...slog.Attr) {
	if s == nil {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
}

// IR records the textual dump of fn.
func (s *Sink) IR(fn *ir.Function) {
	if s == nil {
		return
	}
	s.log(EventIR, slog.String("func", fn.Name), slog.String("dump", ir.Dump(fn)))
}

// Summary records a computed effect summary. A nil summary is the unknown summary.
func (s *Sink) Summary(callee string, depth int, overBudget bool, sum *summary.Summary) {
	s.log(EventSummary,
		slog.String("callee", callee),
		slog.Int("depth", depth),
		slog.Bool("over_budget", overBudget),
		slog.String("summary", sum.String()),
	)
}

// Cache records a snapshot of the summary cache, keyed by callee.
func (s *Sink) Cache(epoch uint64, entries map[string]string) {
	s.log(EventCache, slog.Uint64("epoch", epoch), slog.Any("entries", entries))
}

// Skip records a function that was not checked and why.
func (s *Sink) Skip(fn string, reason error) {
	s.log(EventSkip, slog.String("func", fn), slog.String("reason", reason.Error()))
}
