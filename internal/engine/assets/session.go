// Package assets coordinates per-package asset builds alongside the main bundle.
package assets

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/sheaf/internal/engine/registry"
	"go.trai.ch/zerr"
)

// ErrSessionClosed is returned by Emit once the session loop has exited.
var ErrSessionClosed = zerr.New("build session closed")

const eventBuffer = 64

// Builder runs the asset pipeline of one package.
type Builder interface {
	BuildPackage(ctx context.Context, pkg domain.PackageRecord, out io.Writer) []*domain.AssetError
}

// Options configures a Session.
type Options struct {
	Registry  *registry.Registry
	Snapshot  *domain.Snapshot
	Builder   Builder
	Telemetry ports.Telemetry
	Listener  ports.Listener
	// Mtime reads the modification time of a file. It is consulted off the
	// loop for modules whose event carries no mtime and whose file is not yet
	// in the snapshot.
	Mtime func(path string) (int64, bool)
}

type event interface{ sessionEvent() }

type (
	bundlerEvent struct{ ev domain.BundlerEvent }
	mainEnded    struct{ err error }
	packageDone  struct {
		dir  string
		errs []*domain.AssetError
	}
	mtimeRead struct {
		file  string
		mtime int64
		ok    bool
	}
)

func (bundlerEvent) sessionEvent() {}
func (mainEnded) sessionEvent()    {}
func (packageDone) sessionEvent()  {}
func (mtimeRead) sessionEvent()  {}

// Session is the state of one build invocation. All bundler events, package
// completions and mtime reads are handled by the single goroutine in Run, so
// the registry, snapshot and tracker are never accessed concurrently.
type Session struct {
	opts    Options
	events  chan event
	done    chan struct{}
	stream  *Stream
	tracker *Tracker
	sync    *Synchronizer

	start     time.Time
	mainBytes atomic.Int64

	jobCtx      context.Context
	pending     map[string]struct{}
	inflight    int
	fatal       error
	assetErrors []*domain.AssetError
}

// NewSession creates a session. The asset stream is available immediately.
func NewSession(opts Options) *Session {
	if opts.Listener == nil {
		opts.Listener = ports.ListenerFunc(func(domain.Notification) {})
	}

	s := &Session{
		opts:    opts,
		events:  make(chan event, eventBuffer),
		done:    make(chan struct{}),
		stream:  newStream(),
		start:   time.Now(),
		pending: make(map[string]struct{}),
	}
	s.tracker = NewTracker(opts.Registry, s.launch)
	s.sync = NewSynchronizer(s.stream, s.tracker.Outstanding)
	return s
}

// Stream returns the asset stream of this session.
func (s *Session) Stream() *Stream {
	return s.stream
}

// MainOutput wraps w so that bytes of the main output are counted.
func (s *Session) MainOutput(w io.Writer) io.Writer {
	return &countingWriter{w: w, n: &s.mainBytes}
}

// Bytes returns the number of main output bytes written so far.
func (s *Session) Bytes() int64 {
	return s.mainBytes.Load()
}

// Elapsed returns the time since the session was created.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Emit implements ports.EventSink.
func (s *Session) Emit(ctx context.Context, ev domain.BundlerEvent) error {
	return s.post(ctx, bundlerEvent{ev: ev})
}

// EndMainOutput signals that the main output is complete. A non-nil err is
// fatal: outstanding jobs are cancelled and Run returns err.
func (s *Session) EndMainOutput(err error) {
	_ = s.post(context.Background(), mainEnded{err: err})
}

// AssetErrors returns the unit-scoped failures collected by Run.
// It must only be called after Run has returned.
func (s *Session) AssetErrors() []*domain.AssetError {
	return s.assetErrors
}

// State returns the asset build state of a package directory.
// It must only be called after Run has returned.
func (s *Session) State(dir string) domain.AssetBuildState {
	return s.tracker.State(dir)
}

// Run processes events until the main output has ended, every started package
// build has completed and the asset stream is closed. It returns the fatal
// error of the build, if any.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.jobCtx = jobCtx

	ctxDone := ctx.Done()
	for !s.finished() {
		select {
		case ev := <-s.events:
			s.handle(ev, cancel)
		case <-ctxDone:
			ctxDone = nil
			s.abort(ctx.Err(), cancel)
		}
	}

	return s.fatal
}

func (s *Session) finished() bool {
	return s.sync.Ended() && s.inflight == 0
}

func (s *Session) post(ctx context.Context, ev event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handle(ev event, cancel context.CancelFunc) {
	switch ev := ev.(type) {
	case bundlerEvent:
		s.handleBundlerEvent(ev.ev)
	case mainEnded:
		if ev.err != nil {
			s.abort(ev.err, cancel)
			return
		}
		s.sync.MainOutputEnded(nil)
	case packageDone:
		s.tracker.Complete(ev.dir)
		for _, assetErr := range ev.errs {
			s.assetErrors = append(s.assetErrors, assetErr)
			s.opts.Listener.Notify(domain.AssetErrorNotification{Err: assetErr})
		}
		s.sync.Check()
	case mtimeRead:
		s.inflight--
		delete(s.pending, ev.file)
		if ev.ok {
			s.opts.Snapshot.Mtimes[ev.file] = ev.mtime
		}
	}
}

func (s *Session) handleBundlerEvent(ev domain.BundlerEvent) {
	switch ev := ev.(type) {
	case domain.DependencyEvent:
		s.opts.Snapshot.PutModule(ev.Record)
		s.recordMtime(ev.Record.File, ev.Mtime)
	case domain.PackageEvent:
		if ev.Package.Dir == "" {
			return
		}
		if s.opts.Registry.RegisterPackage(ev.File, ev.Package) {
			s.opts.Listener.Notify(domain.PackageResolvedNotification{Dir: ev.Package.Dir})
		}
		s.tracker.PackageResolved(ev.Package.Dir)
	case domain.FileEvent:
		s.tracker.FileResolved(ev.File)
	}
}

func (s *Session) recordMtime(file string, observed int64) {
	if file == "" || s.opts.Snapshot.HasMtime(file) {
		return
	}
	if observed != 0 {
		s.opts.Snapshot.Mtimes[file] = observed
		return
	}
	if s.opts.Mtime == nil {
		return
	}
	if _, ok := s.pending[file]; ok {
		return
	}
	s.pending[file] = struct{}{}
	s.inflight++

	go func() {
		mtime, ok := s.opts.Mtime(file)
		_ = s.post(context.Background(), mtimeRead{file: file, mtime: mtime, ok: ok})
	}()
}

func (s *Session) launch(pkg domain.PackageRecord) {
	go func() {
		ctx, vertex := s.opts.Telemetry.Record(s.jobCtx, "assets "+pkg.Dir)
		errs := s.opts.Builder.BuildPackage(ctx, pkg, s.stream)
		vertex.Complete(joinAssetErrors(errs))
		_ = s.post(context.Background(), packageDone{dir: pkg.Dir, errs: errs})
	}()
}

func (s *Session) abort(err error, cancel context.CancelFunc) {
	if s.fatal == nil {
		s.fatal = err
	}
	cancel()
	s.sync.MainOutputEnded(s.fatal)
}

func joinAssetErrors(errs []*domain.AssetError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

type countingWriter struct {
	w io.Writer
	n *atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}
