// Package capture drives a camera and an expression detector on a fixed tick
// and reports the reading of the most prominent face.
package capture

import (
	"context"
	"image"
	"time"

	"github.com/justestif/go-mood-music/internal/mood"
)

// Frame is one captured video frame.
type Frame struct {
	Seq      uint64
	Captured time.Time
	Data     []byte // Encoded frame as produced by the camera
}

// Face is a detected face with its expression confidences.
type Face struct {
	Box         image.Rectangle
	Score       float64 // Detection confidence
	Expressions mood.Reading
}

// Camera opens an exclusive frame stream.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames until closed. Read blocks until a frame is available.
type Stream interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// Detector finds faces and their expressions in a frame.
// Load must succeed before Detect is called.
type Detector interface {
	Load(ctx context.Context) error
	Detect(ctx context.Context, f Frame) ([]Face, error)
}

// MostProminent returns the expressions of the face with the largest box,
// breaking ties by detection score. Returns nil when faces is empty.
func MostProminent(faces []Face) mood.Reading {
	if len(faces) == 0 {
		return nil
	}

	best := 0
	bestArea := area(faces[0].Box)
	for i := 1; i < len(faces); i++ {
		a := area(faces[i].Box)
		if a > bestArea || (a == bestArea && faces[i].Score > faces[best].Score) {
			best, bestArea = i, a
		}
	}
	return faces[best].Expressions
}

func area(r image.Rectangle) int {
	r = r.Canon()
	return r.Dx() * r.Dy()
}
