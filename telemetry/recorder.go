package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Frame is one recorded environment step.
type Frame struct {
	Episode     int        `json:"episode"`
	Step        int        `json:"step"`
	Observation []float64  `json:"observation"`
	Action      [5]float64 `json:"action"`
	Reward      float64    `json:"reward"`
	Position    [3]float64 `json:"position"`
	Nectar      float64    `json:"nectar"`
	Done        bool       `json:"done,omitempty"`
}

// Recorder writes frames as zstd-compressed JSON lines.
type Recorder struct {
	path   string
	file   *os.File
	zw     *zstd.Encoder
	enc    *json.Encoder
	frames int
}

// NewRecorder creates <dir>/<name>.jsonl.zst. Returns nil if dir is empty
// (recording disabled).
func NewRecorder(dir, name string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating record directory: %w", err)
	}

	path := filepath.Join(dir, name+".jsonl.zst")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	return &Recorder{path: path, file: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

// Record appends a frame.
func (r *Recorder) Record(fr Frame) error {
	if r == nil {
		return nil
	}
	if err := r.enc.Encode(fr); err != nil {
		return fmt.Errorf("recording frame: %w", err)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	if r == nil {
		return 0
	}
	return r.frames
}

// Path returns the recording file path.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Close flushes the compressor and closes the file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	err := r.zw.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ScanRecording decodes frames from a compressed stream, calling fn for
// each one in order. A non-nil error from fn stops the scan.
func ScanRecording(src io.Reader, fn func(Frame) error) error {
	zr, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)
	for {
		var fr Frame
		if err := dec.Decode(&fr); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding frame: %w", err)
		}
		if err := fn(fr); err != nil {
			return err
		}
	}
}

// ReadRecording loads every frame of a recording file.
func ReadRecording(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	var frames []Frame
	err = ScanRecording(f, func(fr Frame) error {
		frames = append(frames, fr)
		return nil
	})
	return frames, err
}
