package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClip(millis int, rate int) *Clip {
	c := &Clip{SampleRate: rate, Samples: make([]int16, rate*millis/1000)}
	for i := range c.Samples {
		c.Samples[i] = 1000
	}
	return c
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 1000, testClip(1000, 22050).Millis())
	assert.Equal(t, 400, testClip(400, 8000).Millis())
	assert.Equal(t, 0, (&Clip{}).Millis())
}

func TestSecondsTruncates(t *testing.T) {
	assert.Equal(t, 1, testClip(1999, 22050).Seconds())
	assert.Equal(t, 0, testClip(999, 22050).Seconds())
}

func TestSilence(t *testing.T) {
	s := Silence(400*time.Millisecond, 22050)
	assert.Equal(t, 400, s.Millis())
	for _, v := range s.Samples {
		assert.Equal(t, int16(0), v)
	}
}

func TestConcatDuration(t *testing.T) {
	clips := []*Clip{testClip(1000, 22050), testClip(2000, 22050), testClip(3000, 22050)}
	res := Concat(clips, 400*time.Millisecond)

	// sum of clips + (N-1) pauses
	assert.Equal(t, 6800, res.Millis())
	assert.Equal(t, 6, res.Seconds())
}

func TestConcatNoPauseAfterLast(t *testing.T) {
	res := Concat([]*Clip{testClip(500, 22050)}, 400*time.Millisecond)
	assert.Equal(t, 500, res.Millis())
}

func TestConcatEmpty(t *testing.T) {
	res := Concat(nil, 400*time.Millisecond)
	assert.Equal(t, 1000, res.Millis())
}

func TestConcatOrderPreserved(t *testing.T) {
	c1 := &Clip{SampleRate: 1000, Samples: []int16{1, 1}}
	c2 := &Clip{SampleRate: 1000, Samples: []int16{2, 2}}
	res := Concat([]*Clip{c1, c2}, time.Millisecond)
	assert.Equal(t, []int16{1, 1, 0, 2, 2}, res.Samples)
}

func TestConcatResamplesToHighestRate(t *testing.T) {
	clips := []*Clip{testClip(1000, 8000), testClip(1000, 16000)}
	res := Concat(clips, 0)
	assert.Equal(t, 16000, res.SampleRate)
	assert.Equal(t, 2000, res.Millis())
}

func TestFadeIn(t *testing.T) {
	c := testClip(1000, 1000)
	c.FadeIn(300 * time.Millisecond)
	assert.Equal(t, int16(0), c.Samples[0])
	assert.True(t, c.Samples[150] > 0 && c.Samples[150] < 1000)
	assert.Equal(t, int16(1000), c.Samples[300])
}

func TestFadeOut(t *testing.T) {
	c := testClip(1000, 1000)
	c.FadeOut(300 * time.Millisecond)
	l := len(c.Samples)
	assert.Equal(t, int16(0), c.Samples[l-1])
	assert.True(t, c.Samples[l-150] > 0 && c.Samples[l-150] < 1000)
	assert.Equal(t, int16(1000), c.Samples[l-301])
}

func TestFadeLongerThanClip(t *testing.T) {
	c := testClip(100, 1000)
	c.FadeIn(300 * time.Millisecond)
	c.FadeOut(300 * time.Millisecond)
	assert.Equal(t, 100, c.Millis())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := testClip(500, 22050)
	data := EncodeWAV(c)

	res, err := DecodeWAV(data)
	require.Nil(t, err)
	assert.Equal(t, c.SampleRate, res.SampleRate)
	assert.Equal(t, c.Samples, res.Samples)
}

func TestDecodeStereoDownmix(t *testing.T) {
	// hand-build a tiny stereo file: one frame L=100, R=300
	mono := &Clip{SampleRate: 8000, Samples: []int16{100, 300}}
	data := EncodeWAV(mono)
	// patch header to stereo: channels=2, frame contains our two samples
	data[22] = 2
	res, err := DecodeWAV(data)
	require.Nil(t, err)
	require.Equal(t, 1, len(res.Samples))
	assert.Equal(t, int16(200), res.Samples[0])
}

func TestDecodeFails(t *testing.T) {
	_, err := DecodeWAV([]byte("olia"))
	assert.NotNil(t, err)
	_, err = DecodeWAV([]byte("RIFF0000WAVE"))
	assert.NotNil(t, err)
}
