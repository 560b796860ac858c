// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/sheaf/internal/core/ports"
)

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
// Vertex log lines are mirrored to the logger.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
	log ports.Logger
	seq atomic.Uint64
}

// New creates a new Recorder with a default tape.
func New(log ports.Logger) *Recorder {
	return NewRecorder(progrock.NewTape(), log)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer, log ports.Logger) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
		log: log,
	}
}

// Record starts recording a new vertex. Repeated names across watch rebuilds
// get distinct digests so earlier vertices are not overwritten.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	var cfg ports.VertexConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var vopts []progrock.VertexOpt
	if cfg.Internal {
		vopts = append(vopts, progrock.Internal())
	}

	d := digest.FromString(name + "#" + strconv.FormatUint(r.seq.Add(1), 10))
	vertex := &Vertex{vertex: r.rec.Vertex(d, name, vopts...), name: name, log: r.log}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
