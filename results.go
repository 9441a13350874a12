package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

type ResultEntry struct {
	Time     time.Time `json:"time"`
	Action   Action    `json:"action"`
	Category Category  `json:"category"`
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Arn      string    `json:"arn,omitempty"`
	Result   Record    `json:"result,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Results collects the outcome of every submission and appends them to the
// results log as JSON lines.
type Results struct {
	path    string
	clock   clock.Clock
	entries []ResultEntry
}

func newResults(path string, clk clock.Clock) *Results {
	return &Results{
		path:  path,
		clock: clk,
	}
}

func (r *Results) record(action Action, c Category, id string, out Record, err error) {
	entry := ResultEntry{
		Time:     r.clock.Now().UTC(),
		Action:   action,
		Category: c,
		ID:       id,
		Status:   statusSucceeded,
		Arn:      resultArn(out),
		Result:   out,
	}
	if err != nil {
		entry.Status = statusFailed
		entry.Error = err.Error()
	}
	r.entries = append(r.entries, entry)
}

func (r *Results) failures() int {
	n := 0
	for _, e := range r.entries {
		if e.Status == statusFailed {
			n++
		}
	}
	return n
}

func (r *Results) flush() error {
	if r.path == "" || len(r.entries) == 0 {
		return nil
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening results log")
	}
	defer f.Close()

	for _, e := range r.entries {
		line, err := encodeJSON(e, false)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return errors.Wrap(err, "writing results log")
		}
	}

	slog.Info("results", "output", r.path, "entries", len(r.entries), "failures", r.failures())
	r.entries = nil
	return nil
}

// resultArn finds the ARN of a submission response. Group responses nest it.
func resultArn(out Record) string {
	if out == nil {
		return ""
	}
	if arn := out.str("Arn"); arn != "" {
		return arn
	}
	if group, ok := out["Group"].(map[string]any); ok {
		return Record(group).str("Arn")
	}
	return ""
}
