package scriptgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/gemini"
	"github.com/commute-learn/podgo/internal/pkg/utils"
	"github.com/commute-learn/podgo/internal/pkg/voices"
	"github.com/pkg/errors"
)

const maxNotesLen = 15000

// TextGenerator submits a text prompt to a generation model
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64) (string, error)
}

// InfoLoader provides persona info for the prompt
type InfoLoader interface {
	Get(key string) (*voices.Info, error)
}

// Generator turns extracted study notes into a two speaker podcast script.
// Transient upstream failures are retried, on exhaustion a canned script is used.
type Generator struct {
	gen         TextGenerator
	infoLoader  InfoLoader
	backoffF    func() backoff.BackOff
	baseTimeout time.Duration
	stepTimeout time.Duration
}

// NewGenerator creates the script generator. infoLoader may be nil.
func NewGenerator(gen TextGenerator, infoLoader InfoLoader) (*Generator, error) {
	if gen == nil {
		return nil, errors.New("no text generator provided")
	}
	res := &Generator{gen: gen, infoLoader: infoLoader,
		baseTimeout: time.Minute, stepTimeout: 30 * time.Second}
	res.backoffF = newSimpleBackoff
	return res, nil
}

func newSimpleBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	return backoff.WithMaxRetries(bo, 2)
}

// Generate returns the podcast script for the notes text.
// Never fails hard - the fallback script is returned when the model cannot be reached.
func (g *Generator) Generate(ctx context.Context, text string, subject string, chapter string) (string, error) {
	prompt := g.buildPrompt(text, subject, chapter)

	var raw string
	attempt := 0
	op := func() error {
		attempt++
		ctxT, cancel := context.WithTimeout(ctx, g.attemptTimeout(attempt))
		defer cancel()
		var err error
		raw, err = g.gen.GenerateText(ctxT, prompt, 0.8)
		if err != nil {
			if isRetryable(err) {
				cmdapp.Log.Warnf("Script generation attempt %d failed: %v", attempt, err)
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, g.backoffF()); err != nil {
		cmdapp.Log.Errorf("Script generation failed after %d attempt(s): %v", attempt, err)
		return FallbackScript(subject, chapter), nil
	}

	res := Redact(cleanScript(raw))
	if strings.TrimSpace(res) == "" {
		cmdapp.Log.Warn("Empty script from model, using fallback")
		return FallbackScript(subject, chapter), nil
	}
	return res, nil
}

// attemptTimeout grows the budget with each retry
func (g *Generator) attemptTimeout(attempt int) time.Duration {
	return g.baseTimeout + time.Duration(attempt-1)*g.stepTimeout
}

func isRetryable(err error) bool {
	return errors.Is(err, utils.ErrServiceOverloaded) || errors.Is(err, gemini.ErrRequestFailed) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (g *Generator) buildPrompt(text string, subject string, chapter string) string {
	if len(text) > maxNotesLen {
		text = text[:maxNotesLen]
	}
	sb := &strings.Builder{}
	sb.WriteString("Create a Hinglish study podcast script from the notes below.\n")
	fmt.Fprintf(sb, "Subject: %s. Chapter: %s.\n\n", orAny(subject), orAny(chapter))
	sb.WriteString("Two speakers take turns:\n")
	g.writePersona(sb, "DIDI", "Didi - elder sister, warm, explains concepts simply")
	g.writePersona(sb, "BHAIYA", "Bhaiya - elder brother, curious, asks the questions a student would")
	sb.WriteString(`
Rules:
- Every line starts with "DIDI:" or "BHAIYA:".
- Mix Hindi and English naturally, the way tutors speak.
- Cover all concepts from the notes, one at a time.
- No contact details of any kind: no phone numbers, emails or links.
- Plain text only, no markdown.

Notes:
`)
	sb.WriteString(text)
	return sb.String()
}

func (g *Generator) writePersona(sb *strings.Builder, key string, def string) {
	if g.infoLoader != nil {
		info, err := g.infoLoader.Get(key)
		if err == nil {
			fmt.Fprintf(sb, "%s: %s. %s\n", key, info.Name, info.PersonaText())
			return
		}
		cmdapp.Log.Debugf("No persona info for %s: %v", key, err)
	}
	fmt.Fprintf(sb, "%s: %s\n", key, def)
}

func orAny(s string) string {
	if s == "" {
		return "General"
	}
	return s
}

// FallbackScript returns a short canned dialogue used when generation fails
func FallbackScript(subject string, chapter string) string {
	topic := orAny(subject)
	if chapter != "" {
		topic = topic + ", chapter " + chapter
	}
	return fmt.Sprintf(`DIDI: Namaste! Aaj hum baat karenge %s ke baare mein.
BHAIYA: Haan Didi, maine notes upload kiye the, lekin abhi poora script ready nahi hai.
DIDI: Koi baat nahi. Notes ko ek baar khud padh lo, main key points yaad dila deti hoon.
BHAIYA: Theek hai. Pehle definitions dekhte hain, phir examples.
DIDI: Bilkul. Thodi der baad phir se try karna, tab tak revision karte raho.
BHAIYA: Thank you Didi, chalo shuru karte hain!`, topic)
}
