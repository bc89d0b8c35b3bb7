package scriptgen

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/commute-learn/podgo/internal/pkg/utils"
	"github.com/commute-learn/podgo/internal/pkg/voices"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGen struct {
	prompts   []string
	deadlines []time.Duration
	resF      func(call int) (string, error)
}

func (t *testGen) GenerateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	t.prompts = append(t.prompts, prompt)
	dl, _ := ctx.Deadline()
	t.deadlines = append(t.deadlines, time.Until(dl))
	return t.resF(len(t.prompts))
}

func newTestGenerator(t *testing.T, gen TextGenerator) *Generator {
	g, err := NewGenerator(gen, nil)
	require.Nil(t, err)
	g.backoffF = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }
	return g
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(&testGen{}, nil)
	assert.Nil(t, err)
	_, err = NewGenerator(nil, nil)
	assert.NotNil(t, err)
}

func TestGenerate(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) {
		return "DIDI: Namaste!\nBHAIYA: Hello Didi.", nil
	}}
	g := newTestGenerator(t, tg)

	res, err := g.Generate(context.Background(), "photosynthesis notes", "Biology", "5")
	assert.Nil(t, err)
	assert.Equal(t, "DIDI: Namaste!\nBHAIYA: Hello Didi.", res)
	require.Equal(t, 1, len(tg.prompts))
	assert.Contains(t, tg.prompts[0], "photosynthesis notes")
	assert.Contains(t, tg.prompts[0], "Subject: Biology. Chapter: 5.")
}

func TestGenerateRetriesOnOverload(t *testing.T) {
	tg := &testGen{resF: func(call int) (string, error) {
		if call < 3 {
			return "", errors.Wrap(utils.ErrServiceOverloaded, "olia")
		}
		return "DIDI: Ho gaya!", nil
	}}
	g := newTestGenerator(t, tg)

	res, err := g.Generate(context.Background(), "notes", "", "")
	assert.Nil(t, err)
	assert.Equal(t, "DIDI: Ho gaya!", res)
	assert.Equal(t, 3, len(tg.prompts))
}

func TestGenerateTimeoutGrows(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) {
		return "", errors.Wrap(utils.ErrServiceOverloaded, "olia")
	}}
	g := newTestGenerator(t, tg)

	res, err := g.Generate(context.Background(), "notes", "Math", "")
	assert.Nil(t, err)
	assert.Equal(t, FallbackScript("Math", ""), res)
	require.Equal(t, 3, len(tg.deadlines))
	// 60s, 90s, 120s budgets
	assert.InDelta(t, float64(time.Minute), float64(tg.deadlines[0]), float64(5*time.Second))
	assert.InDelta(t, float64(90*time.Second), float64(tg.deadlines[1]), float64(5*time.Second))
	assert.InDelta(t, float64(2*time.Minute), float64(tg.deadlines[2]), float64(5*time.Second))
}

func TestGenerateNoRetryOnTerminal(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) {
		return "", errors.New("wrong key")
	}}
	g := newTestGenerator(t, tg)

	res, err := g.Generate(context.Background(), "notes", "", "")
	assert.Nil(t, err)
	assert.Equal(t, FallbackScript("", ""), res)
	assert.Equal(t, 1, len(tg.prompts))
}

func TestGenerateEmptyUsesFallback(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) { return "   \n  ", nil }}
	g := newTestGenerator(t, tg)

	res, err := g.Generate(context.Background(), "notes", "Physics", "3")
	assert.Nil(t, err)
	assert.Equal(t, FallbackScript("Physics", "3"), res)
}

func TestGenerateCapsNotes(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) { return "DIDI: ok", nil }}
	g := newTestGenerator(t, tg)

	_, err := g.Generate(context.Background(), strings.Repeat("a", maxNotesLen+500), "", "")
	assert.Nil(t, err)
	assert.True(t, len(tg.prompts[0]) < maxNotesLen+1000)
}

type testInfoLoader struct{}

func (t *testInfoLoader) Get(key string) (*voices.Info, error) {
	if key == "DIDI" {
		return &voices.Info{Name: "Priya Didi", Persona: []string{"Patient, warm"}}, nil
	}
	return nil, errors.New("no info")
}

func TestGeneratePersonaFromLoader(t *testing.T) {
	tg := &testGen{resF: func(int) (string, error) { return "DIDI: ok", nil }}
	g, err := NewGenerator(tg, &testInfoLoader{})
	require.Nil(t, err)

	_, err = g.Generate(context.Background(), "notes", "", "")
	assert.Nil(t, err)
	assert.Contains(t, tg.prompts[0], "Priya Didi")
	assert.Contains(t, tg.prompts[0], "Patient, warm")
	// loader failed for BHAIYA, default persona stays
	assert.Contains(t, tg.prompts[0], "elder brother")
}

func TestFallbackScript(t *testing.T) {
	res := FallbackScript("Biology", "5")
	assert.Contains(t, res, "DIDI:")
	assert.Contains(t, res, "BHAIYA:")
	assert.Contains(t, res, "Biology, chapter 5")

	res = FallbackScript("", "")
	assert.Contains(t, res, "General")
}
