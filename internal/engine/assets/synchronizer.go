package assets

// Synchronizer ends the asset stream once the main output has ended and no
// package build is outstanding, in whichever order those happen.
// It is owned by the session loop goroutine.
type Synchronizer struct {
	stream         *Stream
	outstanding    func() bool
	bundleComplete bool
	ended          bool
	err            error
}

// NewSynchronizer creates a synchronizer for stream. outstanding reports
// whether any package build is still in flight.
func NewSynchronizer(stream *Stream, outstanding func() bool) *Synchronizer {
	return &Synchronizer{stream: stream, outstanding: outstanding}
}

// MainOutputEnded records the end of the main output. A non-nil err is
// delivered to the asset reader in place of io.EOF.
func (s *Synchronizer) MainOutputEnded(err error) {
	s.bundleComplete = true
	if err != nil && s.err == nil {
		s.err = err
	}
	s.Check()
}

// Check ends the stream if both signals are satisfied.
func (s *Synchronizer) Check() {
	if s.ended || !s.bundleComplete || s.outstanding() {
		return
	}
	s.ended = true
	s.stream.end(s.err)
}

// Ended reports whether the stream has been ended.
func (s *Synchronizer) Ended() bool {
	return s.ended
}
