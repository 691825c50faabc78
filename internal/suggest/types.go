// Package suggest turns a mood query into song suggestions by asking a
// text-generation service and validating what comes back.
package suggest

// Song is a single suggested track.
type Song struct {
	Title  string `json:"title" validate:"notblank"`
	Artist string `json:"artist" validate:"notblank"`
	URL    string `json:"url" validate:"required,http_url"`
}

// Response is the wire shape returned to callers.
type Response struct {
	SuggestedSongs []Song `json:"suggested_songs"`
}

// Result is the outcome of one gateway call.
// Songs is never nil. Dropped counts upstream entries that failed validation.
type Result struct {
	Songs   []Song
	Dropped int
}

// Partial reports whether some entries were dropped but at least one survived.
func (r *Result) Partial() bool {
	return r.Dropped > 0 && len(r.Songs) > 0
}

// Response converts the result to its wire shape.
func (r *Result) Response() Response {
	songs := r.Songs
	if songs == nil {
		songs = []Song{}
	}
	return Response{SuggestedSongs: songs}
}
