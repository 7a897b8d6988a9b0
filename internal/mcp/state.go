package mcp

import (
	"sync"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/resolve"
)

// State holds the latest analysis result the tools answer from. Watch mode
// swaps in new results while the server runs.
type State struct {
	mu     sync.RWMutex
	result *analyzer.Result
	graph  *resolve.Graph
}

// NewState returns a state serving result.
func NewState(result *analyzer.Result) (*State, error) {
	s := &State{}
	if err := s.Update(result); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the served result. Results are never mutated after a run,
// so readers holding the previous one stay consistent.
func (s *State) Update(result *analyzer.Result) error {
	if result == nil {
		return errors.New("nil analysis result")
	}
	g, err := resolve.Build(result.Natures)
	if err != nil {
		return errors.Wrap(err, "failed to build reference graph")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.graph = g
	return nil
}

func (s *State) current() (*analyzer.Result, *resolve.Graph) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.graph
}

// Result returns the result currently served.
func (s *State) Result() *analyzer.Result {
	result, _ := s.current()
	return result
}
