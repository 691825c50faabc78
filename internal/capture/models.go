package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ModelState tracks detector initialization.
type ModelState int

// Model states.
const (
	ModelsNotLoaded ModelState = iota
	ModelsReady
	ModelsFailed
)

func (s ModelState) String() string {
	switch s {
	case ModelsNotLoaded:
		return "not_loaded"
	case ModelsReady:
		return "ready"
	case ModelsFailed:
		return "failed"
	default:
		return fmt.Sprintf("ModelState(%d)", int(s))
	}
}

// ErrModelsNotReady is returned when capture starts before the detector loaded.
var ErrModelsNotReady = errors.New("detection models not loaded")

// Models owns a detector and its load state.
type Models struct {
	detector Detector

	mu    sync.RWMutex
	state ModelState
	err   error
}

// NewModels wraps detector in the ModelsNotLoaded state.
func NewModels(detector Detector) *Models {
	return &Models{detector: detector}
}

// Load initializes the detector. A failed load can be retried.
func (m *Models) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == ModelsReady {
		return nil
	}

	if err := m.detector.Load(ctx); err != nil {
		m.state = ModelsFailed
		m.err = err
		return fmt.Errorf("loading detection models: %w", err)
	}

	m.state = ModelsReady
	m.err = nil
	return nil
}

// State returns the current load state and the last load error, if any.
func (m *Models) State() (ModelState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.err
}

// Detector returns the wrapped detector.
func (m *Models) Detector() Detector {
	return m.detector
}
