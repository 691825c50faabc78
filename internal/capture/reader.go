package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/justestif/go-mood-music/internal/mood"
)

// ReaderCamera replays newline-delimited JSON detections from r, one frame
// per line. It lets an external detector process feed the capture loop.
type ReaderCamera struct {
	r io.Reader

	mu     sync.Mutex
	opened bool
}

// NewReaderCamera creates a camera over r. It can be opened once.
func NewReaderCamera(r io.Reader) *ReaderCamera {
	return &ReaderCamera{r: r}
}

// ErrCameraInUse is returned when an exclusive camera is opened twice.
var ErrCameraInUse = errors.New("camera already opened")

// Open returns the frame stream.
func (c *ReaderCamera) Open(ctx context.Context) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return nil, ErrCameraInUse
	}
	c.opened = true

	return &readerStream{scanner: bufio.NewScanner(c.r), closer: c.r}, nil
}

type readerStream struct {
	scanner *bufio.Scanner
	closer  io.Reader
	seq     uint64
}

func (s *readerStream) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.seq++
		data := make([]byte, len(line))
		copy(data, line)
		return Frame{Seq: s.seq, Captured: time.Now(), Data: data}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

func (s *readerStream) Close() error {
	if c, ok := s.closer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// wireFace is the JSON form of a detected face.
type wireFace struct {
	Box         [4]int             `json:"box"` // x0, y0, x1, y1
	Score       float64            `json:"score"`
	Expressions map[string]float64 `json:"expressions"`
}

type wireFrame struct {
	Faces []wireFace `json:"faces"`
}

// JSONDetector decodes faces that an upstream detector already encoded into
// frame data as {"faces":[{"box":[x0,y0,x1,y1],"score":0.9,"expressions":{...}}]}.
type JSONDetector struct{}

// Load is a no-op; there are no weights to load.
func (JSONDetector) Load(ctx context.Context) error {
	return nil
}

// Detect decodes the faces in f.
func (JSONDetector) Detect(ctx context.Context, f Frame) ([]Face, error) {
	var wf wireFrame
	if err := json.Unmarshal(f.Data, &wf); err != nil {
		return nil, fmt.Errorf("decoding frame %d: %w", f.Seq, err)
	}

	faces := make([]Face, 0, len(wf.Faces))
	for _, w := range wf.Faces {
		reading := make(mood.Reading, len(w.Expressions))
		for label, score := range w.Expressions {
			if e, ok := mood.ParseExpression(label); ok {
				reading[e] = score
			}
		}
		faces = append(faces, Face{
			Box:         image.Rect(w.Box[0], w.Box[1], w.Box[2], w.Box[3]),
			Score:       w.Score,
			Expressions: reading,
		})
	}
	return faces, nil
}
