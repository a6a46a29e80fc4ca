// Package ocr defines the recognition-engine contract used by the editor's
// OCR controller. The default engine is Tesseract (see the tesseract
// subpackage); tests substitute fakes.
package ocr

import (
	"context"
	"strconv"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Input encapsulates a single page image submitted for OCR.
type Input struct {
	// ID is the caller's correlation token, echoed back in the Result so
	// responses crossing an asynchronous boundary cannot be misattributed.
	ID string
	// Image is the encoded payload in the format declared by Format.
	Image []byte
	Format ImageFormat
	// PageNumber links the input back to the 1-based page it was rendered
	// from.
	PageNumber int
	// DPI carries the effective dots-per-inch; zero means unknown.
	DPI int
	// Languages lists trained-data hints (e.g. "eng", "deu").
	Languages []string
	// Metadata passes engine-specific knobs (e.g. "tessedit_pageseg_mode")
	// without widening the API surface.
	Metadata map[string]string
}

// Result captures recognition output for one input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText is the linearized recognized text.
	PlainText string
	// Confidence is the mean word confidence in [0, 1], 0 when unknown.
	Confidence float64
}

// Engine is the minimal provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// ProgressEngine is implemented by providers that can report fractional
// progress (0..1) while a single recognition is running.
type ProgressEngine interface {
	Engine
	RecognizeWithProgress(ctx context.Context, input Input, progress func(float64)) (Result, error)
}

// InputOption mutates an Input before submission.
type InputOption func(*Input)

// WithLanguages sets language hints on the input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithTesseractPSM sets the Tesseract page segmentation mode variable.
func WithTesseractPSM(mode int) InputOption {
	return WithMetadata("tessedit_pageseg_mode", strconv.Itoa(mode))
}

// WithMetadata sets one provider-specific variable on the input.
func WithMetadata(key, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default engine. Importing the
// tesseract subpackage replaces the initial no-op engine.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine replaces the process-wide default engine.
func SetDefaultEngine(engine Engine) { defaultEngine = engine }

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(_ context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
