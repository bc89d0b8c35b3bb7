package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

// ErrNoCredential indicates the client was built without an API key
var ErrNoCredential = errors.New("no api key configured")

// ErrRequestFailed indicates a transport level failure, the call may be retried
var ErrRequestFailed = errors.New("request failed")

// Part is one element of a generation request: text or inline file data
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64 encoded file bytes
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client calls a generateContent style multimodal generation API
type Client struct {
	httpclient *http.Client
	url        string
	key        string
}

// NewClient creates the generation client
func NewClient(urlStr string, key string) (*Client, error) {
	urlRes, err := utils.ValidateURL(urlStr, "gemini url")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrNoCredential
	}
	return &Client{url: urlRes, key: key, httpclient: &http.Client{}}, nil
}

// GenerateText submits a text prompt. Deadline comes from ctx.
func (c *Client) GenerateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	return c.generate(ctx, []Part{{Text: prompt}}, temperature)
}

// GenerateWithFile submits a prompt together with inline file bytes
func (c *Client) GenerateWithFile(ctx context.Context, prompt string, mime string, data []byte,
	temperature float64) (string, error) {
	parts := []Part{
		{Text: prompt},
		{InlineData: &InlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}},
	}
	return c.generate(ctx, parts, temperature)
}

func (c *Client) generate(ctx context.Context, parts []Part, temperature float64) (string, error) {
	inData := generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: generationConfig{Temperature: temperature, MaxOutputTokens: 8192},
	}
	body, err := json.Marshal(&inData)
	if err != nil {
		return "", errors.Wrap(err, "can't marshal generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?key="+c.key, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "can't prepare request to "+utils.URLToLog(c.url))
	}
	req.Header.Set("Content-Type", "application/json")

	cmdapp.Log.Debugf("Sending generate request to: %s", utils.URLToLog(c.url))
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrRequestFailed, "can't call %s: %v", utils.URLToLog(c.url), err)
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return "", err
	}

	var res generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", errors.Wrap(err, "can't decode generate response")
	}
	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty generate response")
	}
	return res.Candidates[0].Content.Parts[0].Text, nil
}
