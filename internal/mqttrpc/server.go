package mqttrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/suggest"
)

// Suggester is the gateway the server calls.
type Suggester interface {
	GetSuggestions(ctx context.Context, moodText string) (*suggest.Result, error)
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Request is the RPC request payload.
type Request struct {
	RequestID string `json:"requestId"`
	Emotion   string `json:"emotion"`
}

// errorResponse mirrors the HTTP error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DefaultMaxInFlight is how many requests may call the gateway at once.
const DefaultMaxInFlight = 4

// Server answers suggestion requests. At most maxInFlight gateway calls run
// at once; requests arriving while all slots are taken get a RATE_LIMITED reply.
type Server struct {
	gateway Suggester
	prefix  string
	logger  *slog.Logger

	inflight *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	maxInFlight int64
}

// WithMaxInFlight bounds concurrent gateway calls.
func WithMaxInFlight(n int) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxInFlight = int64(n)
		}
	}
}

// NewServer creates a server publishing replies under prefix.
func NewServer(gateway Suggester, prefix string, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	o := serverOptions{maxInFlight: DefaultMaxInFlight}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		gateway:  gateway,
		prefix:   prefix,
		logger:   logger.With("transport", "mqtt"),
		inflight: semaphore.NewWeighted(o.maxInFlight),
	}
}

// HandleMessage decodes one request and answers it asynchronously.
// Requests without a usable requestId cannot be answered and are dropped.
func (s *Server) HandleMessage(ctx context.Context, pub Publisher, payload []byte) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.logger.Warn("error parsing request", "error", err)
		return
	}

	if !validRequestID(req.RequestID) {
		s.logger.Warn("dropping request with invalid requestId", "requestId", req.RequestID)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("dropping request after close", "requestId", req.RequestID)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	if !s.inflight.TryAcquire(1) {
		go func() {
			defer s.wg.Done()
			s.reject(pub, req)
		}()
		return
	}

	go func() {
		defer s.wg.Done()
		defer s.inflight.Release(1)
		s.handle(ctx, pub, req)
	}()
}

// Close stops accepting requests and blocks until in-flight ones have been answered.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// reject answers a request that found every gateway slot taken.
func (s *Server) reject(pub Publisher, req Request) {
	logger := s.logger.With("requestId", req.RequestID)
	logger.Warn("rejecting request, too many in flight")

	err := domainerrors.RateLimited("too many requests in flight")
	s.publish(logger, pub, req.RequestID, errorResponse{Error: err.PublicMessage(), Code: string(err.Code)})
}

func (s *Server) handle(ctx context.Context, pub Publisher, req Request) {
	logger := s.logger.With("requestId", req.RequestID)
	logger.Info("request received", "emotion", req.Emotion)

	result, err := s.gateway.GetSuggestions(ctx, req.Emotion)
	if err != nil {
		code := domainerrors.CodeOf(err)
		logger.Warn("suggestion failed", "code", code, "error", err)
		s.publish(logger, pub, req.RequestID, errorResponse{Error: publicMessage(err), Code: string(code)})
		return
	}
	s.publish(logger, pub, req.RequestID, result.Response())
}

func (s *Server) publish(logger *slog.Logger, pub Publisher, requestID string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("encoding response", "error", err)
		return
	}

	topic := ResponseTopic(s.prefix, requestID)
	if err := pub.Publish(topic, body); err != nil {
		logger.Error("publishing response", "topic", topic, "error", err)
		return
	}
	logger.Info("response published", "topic", topic)
}

func publicMessage(err error) string {
	var coded *domainerrors.Error
	if domainerrors.As(err, &coded) {
		return coded.PublicMessage()
	}
	return domainerrors.CodeInternal.UserMessage()
}

// validRequestID rejects IDs that would change the response topic's shape.
func validRequestID(id string) bool {
	return id != "" && len(id) <= 128 && !strings.ContainsAny(id, "/+#\x00")
}
