package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/spotify"
	"github.com/justestif/go-mood-music/internal/suggest"
	webfs "github.com/justestif/go-mood-music/web"
)

type fakeGateway struct {
	result *suggest.Result
	err    error
	panics bool
	calls  atomic.Int32
	last   atomic.Value
}

func (f *fakeGateway) GetSuggestions(ctx context.Context, moodText string) (*suggest.Result, error) {
	f.calls.Add(1)
	f.last.Store(moodText)
	if f.panics {
		panic("boom")
	}
	return f.result, f.err
}

func threeSongs() *suggest.Result {
	return &suggest.Result{Songs: []suggest.Song{
		{Title: "Happy", Artist: "Pharrell Williams", URL: "https://open.spotify.com/track/60nZcImufyMA1MKQY3dcCH"},
		{Title: "Walking on Sunshine", Artist: "Katrina and the Waves", URL: "https://open.spotify.com/track/05wIrZSwuaVWhcv5FfqeH0"},
		{Title: "Good as Hell", Artist: "Lizzo", URL: "https://open.spotify.com/track/3Yh9lZcWyKrK9GjbhuS0hR"},
	}}
}

var testTemplates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "content" .}}{{end}}`)},
	"pages/home.html":   {Data: []byte(`{{define "content"}}{{range .Moods}}<b style="color: {{moodColor .Energy .Valence}}">{{title .Label}}</b>{{end}}{{end}}`)},
}

var testStatic = fstest.MapFS{
	"app.js": {Data: []byte(`console.log("hi")`)},
}

func newTestServer(t *testing.T, gw Suggester, mutate ...func(*ServerConfig)) *Server {
	t.Helper()

	cfg := ServerConfig{
		TemplatesFS:    testTemplates,
		StaticFS:       testStatic,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	srv, err := NewServer(cfg, gw)
	require.NoError(t, err)
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func postEmotion(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/get-songs-from-emotion", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetSongsFromEmotion_Success(t *testing.T) {
	gw := &fakeGateway{result: threeSongs()}
	srv := newTestServer(t, gw)

	rec := postEmotion(t, srv, `{"emotion":"happy"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp suggest.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.SuggestedSongs, 3)
	for _, s := range resp.SuggestedSongs {
		assert.True(t, spotify.IsTrackURL(s.URL), s.URL)
	}
	assert.Equal(t, "happy", gw.last.Load())
}

func TestGetSongsFromEmotion_EmptyResultIsArray(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{result: &suggest.Result{}})

	rec := postEmotion(t, srv, `{"emotion":"neutral"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggested_songs":[]}`, rec.Body.String())
}

func TestGetSongsFromEmotion_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		gatewayErr error
		wantStatus int
		wantCode   string
		wantCalled bool
	}{
		{
			name:       "missing emotion",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "blank emotion",
			body:       `{"emotion":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "not json",
			body:       `emotion=happy`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "emotion too long",
			body:       `{"emotion":"` + strings.Repeat("a", 501) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "upstream unavailable",
			body:       `{"emotion":"sad"}`,
			gatewayErr: domainerrors.UpstreamUnavailable("timeout"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPSTREAM_UNAVAILABLE",
			wantCalled: true,
		},
		{
			name:       "upstream malformed",
			body:       `{"emotion":"sad"}`,
			gatewayErr: domainerrors.UpstreamMalformed("not json"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_MALFORMED",
			wantCalled: true,
		},
		{
			name:       "uncoded error",
			body:       `{"emotion":"sad"}`,
			gatewayErr: errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{result: threeSongs(), err: tt.gatewayErr}
			srv := newTestServer(t, gw)

			rec := postEmotion(t, srv, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantCalled, gw.calls.Load() > 0)
		})
	}
}

func TestGetSongsFromEmotion_MissingEmotionMessage(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{})

	rec := postEmotion(t, srv, `{"emotion":""}`)

	assert.Equal(t, "No emotion data provided", decodeError(t, rec).Error)
}

func TestGetSongsFromEmotion_BodyTooLarge(t *testing.T) {
	gw := &fakeGateway{result: threeSongs()}
	srv := newTestServer(t, gw)

	rec := postEmotion(t, srv, `{"emotion":"`+strings.Repeat("a", MaxBodyBytes)+`"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rec).Error)
	assert.Zero(t, gw.calls.Load())
}

func TestGetSongsFromEmotion_PanicIsJSON(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{panics: true})

	rec := postEmotion(t, srv, `{"emotion":"happy"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeError(t, rec).Code)
}

func TestGetSongsFromEmotion_RateLimited(t *testing.T) {
	gw := &fakeGateway{result: threeSongs()}
	srv := newTestServer(t, gw, func(c *ServerConfig) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	first := postEmotion(t, srv, `{"emotion":"happy"}`)
	second := postEmotion(t, srv, `{"emotion":"happy"}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
	assert.Equal(t, int32(1), gw.calls.Load())
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{
			name: "browser preflight",
			headers: map[string]string{
				"Origin":                         "https://example.com",
				"Access-Control-Request-Method":  "POST",
				"Access-Control-Request-Headers": "content-type, apikey",
			},
		},
		{
			name:    "bare options",
			headers: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			srv := newTestServer(t, gw)

			req := httptest.NewRequest(http.MethodOptions, "/get-songs-from-emotion", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Less(t, rec.Code, 300)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Zero(t, gw.calls.Load())
		})
	}
}

func TestCORSOnActualRequest(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{result: threeSongs()})

	req := httptest.NewRequest(http.MethodPost, "/get-songs-from-emotion", strings.NewReader(`{"emotion":"happy"}`))
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHome(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Mood Music</title>")
	assert.Contains(t, body, "Happy")
	assert.Contains(t, body, "Surprised")
	assert.Contains(t, body, "hsl(")
}

func TestStatic(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")
}

func TestEmbeddedAssets(t *testing.T) {
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	require.NoError(t, err)
	static, err := fs.Sub(webfs.StaticFS, "static")
	require.NoError(t, err)

	srv := newTestServer(t, &fakeGateway{}, func(c *ServerConfig) {
		c.TemplatesFS = templates
		c.StaticFS = static
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="mood-form"`)
	assert.Contains(t, rec.Body.String(), `data-mood="happy"`)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/get-songs-from-emotion")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, &fakeGateway{}, func(c *ServerConfig) {
		c.Addr = "127.0.0.1:0"
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
