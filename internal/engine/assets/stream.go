package assets

import (
	"io"
	"sync"
	"sync/atomic"
)

// Stream is the asset output of one session. Each Write is delivered to the
// reader as one contiguous segment; parallel writers are serialized.
type Stream struct {
	pr      *io.PipeReader
	pw      *io.PipeWriter
	once    sync.Once
	written atomic.Int64
}

func newStream() *Stream {
	pr, pw := io.Pipe()
	return &Stream{pr: pr, pw: pw}
}

// Read reads asset content. It returns io.EOF once the stream has ended
// cleanly, or the fatal build error otherwise.
func (s *Stream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Write appends one segment. It blocks until the reader has consumed it.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	s.written.Add(int64(n))
	return n, err
}

// CloseRead abandons the reader side; pending and future writes fail with err.
func (s *Stream) CloseRead(err error) {
	_ = s.pr.CloseWithError(err)
}

// Written returns the number of bytes accepted so far.
func (s *Stream) Written() int64 {
	return s.written.Load()
}

// end closes the writer side exactly once.
func (s *Stream) end(err error) {
	s.once.Do(func() {
		_ = s.pw.CloseWithError(err)
	})
}
