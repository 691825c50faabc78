package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/mood"
	"github.com/justestif/go-mood-music/internal/suggest"
	"github.com/justestif/go-mood-music/internal/validation"
)

// Suggester produces song suggestions for a mood.
type Suggester interface {
	GetSuggestions(ctx context.Context, moodText string) (*suggest.Result, error)
}

// suggestRequest is the body of POST /get-songs-from-emotion.
type suggestRequest struct {
	Emotion string `json:"emotion" validate:"notblank,max=500"`
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	gateway   Suggester
	validator *validation.Validator
	templates *Templates
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(gateway Suggester, v *validation.Validator, templates *Templates, logger *slog.Logger) *Handlers {
	return &Handlers{
		gateway:   gateway,
		validator: v,
		templates: templates,
		logger:    logger,
	}
}

// GetSongsFromEmotion answers POST /get-songs-from-emotion.
func (h *Handlers) GetSongsFromEmotion(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domainerrors.InvalidInput("Request body too large"), h.logger)
			return
		}
		writeError(w, r, domainerrors.InvalidInput("Request body must be a JSON object with an emotion field").WithCause(err), h.logger)
		return
	}

	if strings.TrimSpace(req.Emotion) == "" {
		writeError(w, r, domainerrors.InvalidInput("No emotion data provided"), h.logger)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.gateway.GetSuggestions(r.Context(), req.Emotion)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result.Response(), h.logger)
}

// Preflight answers OPTIONS requests that the CORS middleware passes through,
// such as ones without Access-Control-Request-Method.
func (h *Handlers) Preflight(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
	header.Set("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
	w.WriteHeader(http.StatusOK)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: PageData{
			Title:       "Mood Music",
			CurrentPath: r.URL.Path,
		},
		Moods: moodChips(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.logger.Error("failed to render template", "page", "home", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// moodChips lists the canonical expressions as quick picks for the page.
func moodChips() []MoodData {
	chips := make([]MoodData, 0, len(mood.Expressions))
	for _, e := range mood.Expressions {
		cat, ok := mood.GetCategory(e)
		if !ok {
			continue
		}
		chips = append(chips, MoodData{
			Label:   string(e),
			Name:    cat.Name,
			Energy:  float64(cat.Energy),
			Valence: float64(cat.Valence),
		})
	}
	return chips
}
