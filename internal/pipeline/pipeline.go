// Package pipeline drains a queue of files through a fixed pool of workers.
// Every file goes through the same staged commit: copy it into the worker's
// staging file, transform the copy, and replace the original only when the
// copy came out strictly smaller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shrink-go/internal/engine"
	"shrink-go/internal/fileinfo"
	"shrink-go/internal/progress"
	"shrink-go/internal/queue"
	"shrink-go/internal/staging"
)

// FailureSink receives one record per skipped file.
type FailureSink interface {
	Append(category, message, path string) error
}

type Options struct {
	// Workers is the pool size. Zero means runtime.NumCPU.
	Workers  int
	Engine   engine.Capability
	Staging  *staging.Area
	Failures FailureSink
	Logger   *log.Logger
	Progress *progress.Bar
}

type Result struct {
	Totals
	Start   time.Time
	End     time.Time
	Workers int
	// Dropped counts queued files discarded by an abort.
	Dropped     int
	Success     bool
	Interrupted bool
	// Fatal is set when a worker aborted the run.
	Fatal *FileError
}

type pool struct {
	queue    *queue.Queue
	abort    *Abort
	stats    *Aggregator
	engine   engine.Capability
	staging  *staging.Area
	failures FailureSink
	logger   *log.Logger
	progress *progress.Bar
	tracer   trace.Tracer
}

// Run processes q until it is empty, the run is aborted by a fatal failure,
// or ctx is cancelled. The returned error is the fatal failure, if any.
// Cancellation is only observed between files.
func Run(ctx context.Context, q *queue.Queue, opts Options) (*Result, error) {
	if opts.Engine == nil {
		return nil, errors.New("pipeline: no engine")
	}
	if opts.Staging == nil {
		return nil, errors.New("pipeline: no staging area")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n := q.Len(); n < workers {
		workers = max(n, 1)
	}

	p := &pool{
		queue:    q,
		abort:    NewAbort(q),
		stats:    &Aggregator{},
		engine:   opts.Engine,
		staging:  opts.Staging,
		failures: opts.Failures,
		logger:   opts.Logger,
		progress: opts.Progress,
		tracer:   otel.Tracer("shrink-go/pipeline"),
	}

	ctx, span := p.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.Int("workers", workers),
		attribute.Int("queued", q.Len()),
	))
	defer span.End()

	result := &Result{Start: time.Now(), Workers: workers}

	var g errgroup.Group
	for id := 0; id < workers; id++ {
		id := id
		g.Go(func() error {
			return p.worker(ctx, id)
		})
	}
	err := g.Wait()

	result.End = time.Now()
	result.Totals = p.stats.Totals()
	result.Interrupted = ctx.Err() != nil
	result.Dropped = p.abort.Dropped()
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			result.Fatal = fe
		} else {
			result.Fatal = &FileError{Category: FatalError, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "aborted")
	}
	result.Success = err == nil && !result.Interrupted

	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int64("before", result.Before),
		attribute.Int64("after", result.After),
	)
	return result, err
}

// worker owns one staging handle for its whole life and releases it on
// every exit path.
func (p *pool) worker(ctx context.Context, id int) error {
	handle, err := p.staging.Acquire()
	if err != nil {
		p.abort.Trip()
		return &FileError{Category: FatalError, Err: err}
	}
	defer func() {
		if err := handle.Release(); err != nil {
			p.logger.Warn("failed to release staging file", "worker", id, "err", err)
		}
	}()

	logger := p.logger.With("worker", id)
	for {
		if p.abort.Tripped() || ctx.Err() != nil {
			return nil
		}
		path, ok := p.queue.Pop()
		if !ok {
			return nil
		}

		p.progress.Start(id, path)
		saved, err := p.processFile(ctx, handle, path)
		p.progress.Done(id, saved)
		if err == nil {
			continue
		}

		fe := asFileError(err, path)
		if fe.Category.Recoverable() {
			p.stats.Fail()
			logger.Debug("skipped", "category", fe.Category, "path", path, "err", fe.Err)
			if p.failures != nil {
				if lerr := p.failures.Append(string(fe.Category), fe.Err.Error(), path); lerr != nil {
					logger.Warn("failed to write failure log", "err", lerr)
				}
			}
			continue
		}

		if p.abort.Trip() {
			logger.Error("aborting run", "category", fe.Category, "path", path, "err", fe.Err, "dropped", p.abort.Dropped())
		}
		return fe
	}
}

func asFileError(err error, path string) *FileError {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &FileError{Category: Classify(err), Path: path, Err: err}
}

// processFile runs the staged commit for one file and returns the bytes it
// saved. A panic inside the protocol is turned into a fatal failure.
func (p *pool) processFile(ctx context.Context, h *staging.Handle, path string) (saved int64, err error) {
	_, span := p.tracer.Start(ctx, "file", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = &FileError{Category: FatalError, Path: path, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed")
		}
	}()

	c, err := fileinfo.Capture(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.stats.Skip()
			span.SetAttributes(attribute.String("outcome", "missing"))
			return 0, nil
		}
		return 0, err
	}
	if c.ReadOnly() {
		p.stats.Skip()
		span.SetAttributes(attribute.String("outcome", "read-only"))
		return 0, nil
	}

	if err := h.Stage(path); err != nil {
		return 0, err
	}
	if _, err := p.engine.Optimize(h.Stream()); err != nil {
		return 0, err
	}
	staged, err := h.Len()
	if err != nil {
		return 0, err
	}

	after := c.Size
	replaced := staged < c.Size
	if replaced {
		if err := commit(h, c); err != nil {
			return 0, err
		}
		after = staged
		if err := restoreTimes(c); err != nil {
			p.logger.Warn("replaced file but failed to restore timestamps", "path", path, "err", err)
		}
	} else if err := restoreTimes(c); err != nil {
		// Reading the file for staging may have moved its access time
		p.logger.Debug("failed to restore access time", "path", path, "err", err)
	}

	p.stats.Record(c.Size, after, replaced)
	span.SetAttributes(
		attribute.Bool("replaced", replaced),
		attribute.Int64("before", c.Size),
		attribute.Int64("after", after),
	)
	p.logger.Debug("processed", "path", path, "before", c.Size, "after", after, "replaced", replaced)
	return c.Size - after, nil
}

// commit moves the staged result over the original. Files that must keep
// their inode are rewritten in place.
func commit(h *staging.Handle, c fileinfo.Candidate) error {
	if c.KeepInode() {
		return h.Overwrite(c.Path)
	}
	return h.CommitTo(c.Path, c.Mode, c.Owner)
}

var restoreTimes = fileinfo.Candidate.Restore
