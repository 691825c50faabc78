package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-mood-music/internal/mood"
)

// DefaultInterval is the time between detection ticks.
const DefaultInterval = 100 * time.Millisecond

// State is the capture session lifecycle state.
type State int

// Session states.
const (
	Idle State = iota
	Capturing
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotIdle is returned by Start when the session is already running.
var ErrNotIdle = errors.New("capture session is not idle")

// ReadingFunc receives one reading per tick; nil means no face was found.
type ReadingFunc func(mood.Reading)

// Session runs the Idle -> Capturing -> Stopping -> Idle lifecycle around one camera.
type Session struct {
	id       string
	camera   Camera
	models   *Models
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	done  chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an idle session.
func NewSession(camera Camera, models *Models, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.NewString(),
		camera:   camera,
		models:   models,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the camera and begins ticking. Each tick reports the most
// prominent face's reading to onReading. The loop ends on Stop, on ctx
// cancellation, or when the stream fails; the stream is closed when it ends.
func (s *Session) Start(ctx context.Context, onReading ReadingFunc) error {
	if state, _ := s.models.State(); state != ModelsReady {
		return ErrModelsNotReady
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.state = Capturing
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	stream, err := s.camera.Open(ctx)
	if err != nil {
		s.setState(Idle)
		close(done)
		return fmt.Errorf("opening camera: %w", err)
	}

	s.logger.Info("capture started", "interval", s.interval)
	go s.loop(ctx, stream, onReading, done)
	return nil
}

// Stop asks the loop to end and waits until the camera is released.
// Stopping an idle session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != Capturing {
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	s.state = Stopping
	done := s.done
	s.mu.Unlock()

	<-done
}

// Wait blocks until the current loop, if any, has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) loop(ctx context.Context, stream Stream, onReading ReadingFunc, done chan struct{}) {
	var closeOnce sync.Once
	closeStream := func() {
		closeOnce.Do(func() {
			if err := stream.Close(); err != nil {
				s.logger.Warn("closing camera stream", "error", err)
			}
		})
	}

	defer func() {
		closeStream()
		s.setState(Idle)
		s.logger.Info("capture stopped")
		close(done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	detector := s.models.Detector()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.capturing() {
			return
		}

		frame, err := stream.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, io.EOF):
				s.logger.Info("camera stream ended")
			default:
				s.logger.Warn("reading frame", "error", err)
			}
			return
		}

		faces, err := detector.Detect(ctx, frame)
		if err != nil {
			s.logger.Warn("detecting faces", "frame", frame.Seq, "error", err)
			continue
		}

		// Stop may have landed while detection ran.
		if !s.capturing() {
			return
		}

		if onReading != nil {
			onReading(MostProminent(faces))
		}
	}
}

func (s *Session) capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Capturing
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
