package client

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrRejected marks an upload the server answered with a non-2xx status.
var ErrRejected = errors.New("upload rejected")

// FileFailure records why one file did not make it to the server.
type FileFailure struct {
	Path string
	Err  error
}

// Summary accounts for one Run.
type Summary struct {
	Files    int
	Sent     int
	Skipped  int // malformed lines dropped across all files
	Failures []FileFailure
}

// Failed reports whether any file failed.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Runner uploads every CSV file of a directory, one at a time.
type Runner struct {
	Sender Sender
	Out    io.Writer
	// FailFast stops at the first failed file instead of continuing.
	FailFast bool
}

// Run discovers files under root, then loads and sends each in order.
// Discovery errors and context cancellation end the run immediately;
// per-file failures are collected in the summary unless FailFast is set.
func (r *Runner) Run(ctx context.Context, root string) (*Summary, error) {
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Files: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		err := r.runFile(ctx, out, path, sum)
		if err == nil {
			sum.Sent++
			continue
		}

		sum.Failures = append(sum.Failures, FileFailure{Path: path, Err: err})
		fmt.Fprintf(out, "Failed %s: %v\n", path, err)

		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if r.FailFast {
			return sum, fmt.Errorf("%s: %w", path, err)
		}
	}

	return sum, nil
}

func (r *Runner) runFile(ctx context.Context, out io.Writer, path string, sum *Summary) error {
	fmt.Fprintf(out, "Loading file %s\n", path)

	frame, rowErrs, err := Load(path)
	if err != nil {
		return err
	}
	if len(rowErrs) > 0 {
		sum.Skipped += len(rowErrs)
		fmt.Fprintf(out, "Skipped %d malformed line(s) in %s\n", len(rowErrs), path)
	}

	outcome, err := r.Sender.Send(ctx, frame)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Response:")
	fmt.Fprintf(out, "%d : %s\n", outcome.StatusCode, outcome.Body)

	if !outcome.OK() {
		return fmt.Errorf("%w: status %d", ErrRejected, outcome.StatusCode)
	}
	return nil
}
