// ABOUTME: WAV file output for decoded streams
// ABOUTME: Implements the audio output interface over a 16-bit PCM WAV encoder
package export

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth     = 16
	formatPCM    = 1
	bufferFrames = 4096
)

// WAV writes everything it receives to a 16-bit PCM WAV file
type WAV struct {
	path string
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer

	frames int
}

// NewWAV creates a WAV output; the file is created on Open
func NewWAV(path string) *WAV {
	return &WAV{path: path}
}

// Open creates the file and writes the header
func (w *WAV) Open(sampleRate, channels int) error {
	if w.file != nil {
		return fmt.Errorf("wav output already open: %s", w.path)
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid wav format: %d Hz, %d channels", sampleRate, channels)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	w.file = f
	w.enc = wav.NewEncoder(f, sampleRate, bitDepth, channels, formatPCM)
	w.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 0, bufferFrames*channels),
		SourceBitDepth: bitDepth,
	}
	return nil
}

// Write appends interleaved samples
func (w *WAV) Write(samples []int16) error {
	if w.enc == nil {
		return fmt.Errorf("wav output not open")
	}

	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	w.frames += len(samples) / w.buf.Format.NumChannels
	return nil
}

// Frames returns the number of sample frames written so far
func (w *WAV) Frames() int {
	return w.frames
}

// Close finalizes the header sizes and closes the file
func (w *WAV) Close() error {
	if w.file == nil {
		return nil
	}
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	w.file = nil
	w.enc = nil

	if encErr != nil {
		return fmt.Errorf("failed to finalize wav file: %w", encErr)
	}
	return fileErr
}
