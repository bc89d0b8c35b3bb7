package ttsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Client calls the primary speech synthesis service.
// One call produces one voiced audio clip, failures are independent per call.
type Client struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
}

// NewClient creates a synthesis client
func NewClient(urlStr string) (*Client, error) {
	urlRes, err := utils.ValidateURL(urlStr, "tts url")
	if err != nil {
		return nil, err
	}
	return &Client{url: urlRes, httpclient: &http.Client{}, timeout: time.Minute}, nil
}

// Synthesize sends text with the wanted voice and returns WAV bytes
func (c *Client) Synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	return invoke(ctx, c.httpclient, c.url, c.timeout, synthesizeRequest{Text: text, Voice: voice})
}

// Fallback calls a simpler single-voice synthesis service.
// Used when the primary engine fails for a segment.
type Fallback struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
}

// NewFallback creates a fallback synthesis client
func NewFallback(urlStr string) (*Fallback, error) {
	urlRes, err := utils.ValidateURL(urlStr, "tts fallback url")
	if err != nil {
		return nil, err
	}
	return &Fallback{url: urlRes, httpclient: &http.Client{}, timeout: time.Minute}, nil
}

// Synthesize sends text and returns WAV bytes in the service's default voice
func (c *Fallback) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return invoke(ctx, c.httpclient, c.url, c.timeout, synthesizeRequest{Text: text})
}

func invoke(ctx context.Context, client *http.Client, url string, timeout time.Duration,
	inData synthesizeRequest) ([]byte, error) {
	body, err := json.Marshal(&inData)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal synthesize request")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "can't prepare request to "+url)
	}
	req.Header.Set("Content-Type", "application/json")

	cmdapp.Log.Debugf("Sending text (%d chars) to: %s", len(inData.Text), utils.URLToLog(url))
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "can't call "+utils.URLToLog(url))
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, err
	}
	res, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "can't read synthesis response")
	}
	if len(res) == 0 {
		return nil, errors.New("empty synthesis response")
	}
	return res, nil
}
