package extractor

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

const extractPrompt = `Extract ALL text from this image/document of student notes.
Include every heading, definition, formula, example and diagram label.
Keep the original order. Return plain text only, no commentary.`

// VisionReader submits a prompt with inline file bytes to a multimodal model
type VisionReader interface {
	GenerateWithFile(ctx context.Context, prompt string, mime string, data []byte,
		temperature float64) (string, error)
}

// Client extracts study text from uploaded note images and PDFs
type Client struct {
	reader  VisionReader
	timeout time.Duration
}

// NewClient creates the extraction client
func NewClient(reader VisionReader) (*Client, error) {
	if reader == nil {
		return nil, errors.New("no vision reader provided")
	}
	return &Client{reader: reader, timeout: time.Minute}, nil
}

// Extract returns the text content of the uploaded file
func (c *Client) Extract(ctx context.Context, data []byte, mime string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("no data to extract")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmdapp.Log.Infof("Extracting text from %s (%d b)", mime, len(data))
	res, err := c.reader.GenerateWithFile(ctx, extractPrompt, mime, data, 0.1)
	if err != nil {
		return "", errors.Wrap(err, "can't extract text")
	}
	return strings.TrimSpace(res), nil
}

// SniffMime guesses the upload mime type from magic bytes. Defaults to jpeg.
func SniffMime(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "application/pdf"
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
