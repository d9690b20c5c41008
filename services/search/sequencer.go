package search

import "sync/atomic"

// Sequencer issues generation ids for asynchronous requests. Only the most
// recently issued id is current.
type Sequencer struct {
	current atomic.Uint64
}

// Next issues a new generation id, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.current.Add(1)
}

func (s *Sequencer) IsCurrent(id uint64) bool {
	return s.current.Load() == id
}

// Invalidate supersedes the current id without handing out a new one.
func (s *Sequencer) Invalidate() {
	s.current.Add(1)
}
