package synthesizer

import (
	"context"
	"testing"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/audio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTTS struct {
	texts  []string
	voices []string
	err    error
	dur    time.Duration
	wav    []byte
}

func (t *testTTS) Synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	t.texts = append(t.texts, text)
	t.voices = append(t.voices, voice)
	if t.err != nil {
		return nil, t.err
	}
	if t.wav != nil {
		return t.wav, nil
	}
	return audio.EncodeWAV(audio.Silence(t.dur, audio.DefaultSampleRate)), nil
}

type testFallbackTTS struct {
	texts []string
	err   error
	dur   time.Duration
}

func (t *testFallbackTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	t.texts = append(t.texts, text)
	if t.err != nil {
		return nil, t.err
	}
	return audio.EncodeWAV(audio.Silence(t.dur, audio.DefaultSampleRate)), nil
}

type testVoices struct{}

func (t *testVoices) Get(speaker string) (string, error) {
	if speaker == "DIDI" {
		return "voice-f", nil
	}
	return "voice-m", nil
}

type testEncoder struct {
	wav  []byte
	path string
	err  error
}

func (t *testEncoder) Encode(wavData []byte, outPath string) error {
	t.wav, t.path = wavData, outPath
	return t.err
}

func newTestService(t *testing.T, tts *testTTS, fb *testFallbackTTS, enc *testEncoder) *Service {
	s, err := NewService(tts, fb, &testVoices{}, enc)
	require.Nil(t, err)
	return s
}

func TestNewService(t *testing.T) {
	_, err := NewService(&testTTS{}, &testFallbackTTS{}, &testVoices{}, &testEncoder{})
	assert.Nil(t, err)
	_, err = NewService(nil, nil, &testVoices{}, &testEncoder{})
	assert.NotNil(t, err)
	_, err = NewService(&testTTS{}, nil, nil, &testEncoder{})
	assert.NotNil(t, err)
	_, err = NewService(&testTTS{}, nil, &testVoices{}, nil)
	assert.NotNil(t, err)
}

func TestSynthesize(t *testing.T) {
	tts := &testTTS{dur: time.Second}
	enc := &testEncoder{}
	s := newTestService(t, tts, nil, enc)

	secs, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!\nBHAIYA: Hello Didi!", "/tmp/out.mp3")

	assert.Nil(t, err)
	// two 1s clips + 400ms pause, truncated
	assert.Equal(t, 2, secs)
	assert.Equal(t, []string{"Namaste ji!", "Hello Didi!"}, tts.texts)
	assert.Equal(t, []string{"voice-f", "voice-m"}, tts.voices)
	assert.Equal(t, "/tmp/out.mp3", enc.path)
	clip, errD := audio.DecodeWAV(enc.wav)
	require.Nil(t, errD)
	assert.InDelta(t, 2400, clip.Millis(), 5)
}

func TestSynthesizeNoLabels(t *testing.T) {
	tts := &testTTS{dur: time.Second}
	s := newTestService(t, tts, nil, &testEncoder{})

	_, err := s.Synthesize(context.Background(), "just plain text here", "/tmp/out.mp3")
	assert.Nil(t, err)
	assert.Equal(t, []string{"just plain text here"}, tts.texts)
	assert.Equal(t, []string{"voice-f"}, tts.voices)
}

func TestSynthesizeSkipsShort(t *testing.T) {
	tts := &testTTS{dur: time.Second}
	s := newTestService(t, tts, nil, &testEncoder{})

	secs, err := s.Synthesize(context.Background(), "DIDI: a\nBHAIYA: Hello Didi!", "/tmp/out.mp3")
	assert.Nil(t, err)
	assert.Equal(t, 1, secs)
	assert.Equal(t, []string{"Hello Didi!"}, tts.texts)
}

func TestSynthesizeFallbackPerSegment(t *testing.T) {
	tts := &testTTS{err: errors.New("down")}
	fb := &testFallbackTTS{dur: time.Second}
	s := newTestService(t, tts, fb, &testEncoder{})

	secs, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!", "/tmp/out.mp3")
	assert.Nil(t, err)
	assert.Equal(t, 1, secs)
	assert.Equal(t, []string{"Namaste ji!"}, fb.texts)
}

func TestSynthesizeAllFailed(t *testing.T) {
	tts := &testTTS{err: errors.New("down")}
	fb := &testFallbackTTS{err: errors.New("down too")}
	enc := &testEncoder{}
	s := newTestService(t, tts, fb, enc)

	_, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!", "/tmp/out.mp3")
	assert.NotNil(t, err)
	// failure notice was tried on both engines, nothing was written
	assert.Contains(t, tts.texts, failedPhrase)
	assert.Contains(t, fb.texts, failedPhrase)
	assert.Equal(t, "", enc.path)
}

func TestSynthesizeFailedPhraseVoiced(t *testing.T) {
	// all turns too short, failure notice voiced by the fallback,
	// duration reported as the fixed constant
	tts := &testTTS{err: errors.New("down")}
	fb := &testFallbackTTS{dur: 2 * time.Second}
	enc := &testEncoder{}
	s := newTestService(t, tts, fb, enc)

	secs, err := s.Synthesize(context.Background(), "DIDI: x", "/tmp/out.mp3")
	assert.Nil(t, err)
	assert.Equal(t, failedSeconds, secs)
	assert.Equal(t, []string{failedPhrase}, fb.texts)
}

func TestSynthesizeFadesResult(t *testing.T) {
	tts := &testTTS{wav: toneWAV(time.Second)}
	enc := &testEncoder{}
	s := newTestService(t, tts, nil, enc)

	secs, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!\nBHAIYA: Hello Didi!", "/tmp/out.mp3")
	assert.Nil(t, err)
	assert.Equal(t, 2, secs)
	clip, errD := audio.DecodeWAV(enc.wav)
	require.Nil(t, errD)
	// the composed clip ramps in and out, the middle keeps the level
	assert.Equal(t, int16(0), clip.Samples[0])
	assert.Equal(t, int16(0), clip.Samples[len(clip.Samples)-1])
	assert.Equal(t, int16(1000), clip.Samples[len(clip.Samples)/4])
}

func TestSynthesizeNoFadeWhenShort(t *testing.T) {
	tts := &testTTS{wav: toneWAV(800 * time.Millisecond)}
	enc := &testEncoder{}
	s := newTestService(t, tts, nil, enc)

	_, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!", "/tmp/out.mp3")
	assert.Nil(t, err)
	clip, errD := audio.DecodeWAV(enc.wav)
	require.Nil(t, errD)
	assert.Equal(t, int16(1000), clip.Samples[0])
	assert.Equal(t, int16(1000), clip.Samples[len(clip.Samples)-1])
}

func toneWAV(d time.Duration) []byte {
	c := audio.Silence(d, audio.DefaultSampleRate)
	for i := range c.Samples {
		c.Samples[i] = 1000
	}
	return audio.EncodeWAV(c)
}

func TestSynthesizeEncodeFails(t *testing.T) {
	tts := &testTTS{dur: time.Second}
	s := newTestService(t, tts, nil, &testEncoder{err: errors.New("no ffmpeg")})

	_, err := s.Synthesize(context.Background(), "DIDI: Namaste ji!", "/tmp/out.mp3")
	assert.NotNil(t, err)
}
