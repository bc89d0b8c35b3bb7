package synthesizer

import (
	"context"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/audio"
	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

const (
	failedPhrase  = "Audio generation failed. Please try again."
	failedSeconds = 5
)

// SpeechSynthesizer makes speech audio for a text with a chosen voice
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice string) ([]byte, error)
}

// FallbackSynthesizer makes speech audio when the main synthesizer is down
type FallbackSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// VoiceProvider maps a speaker label to a synthesis voice ID
type VoiceProvider interface {
	Get(speaker string) (string, error)
}

// Service turns a two speaker script into one composed audio file
type Service struct {
	primary  SpeechSynthesizer
	fallback FallbackSynthesizer
	voices   VoiceProvider
	encoder  audio.Encoder
	pause    time.Duration
	fade     time.Duration
	fadeMin  time.Duration
}

// NewService creates the synthesis service
func NewService(primary SpeechSynthesizer, fallback FallbackSynthesizer, voices VoiceProvider,
	encoder audio.Encoder) (*Service, error) {
	if primary == nil {
		return nil, errors.New("no speech synthesizer provided")
	}
	if voices == nil {
		return nil, errors.New("no voice provider provided")
	}
	if encoder == nil {
		return nil, errors.New("no encoder provided")
	}
	return &Service{primary: primary, fallback: fallback, voices: voices, encoder: encoder,
		pause: 400 * time.Millisecond, fade: 300 * time.Millisecond, fadeMin: time.Second}, nil
}

// Synthesize voices the script, composes the segments and writes the result
// to outPath. Returns the audio duration in full seconds.
func (s *Service) Synthesize(ctx context.Context, script string, outPath string) (int, error) {
	utterances := Segment(script)
	if len(utterances) == 0 {
		utterances = []Utterance{{Speaker: "DIDI", Text: script}}
	}

	var clips []*audio.Clip
	for i, u := range utterances {
		text := CleanForTTS(u.Text)
		if len(text) < 2 {
			continue
		}
		clip, err := s.makeClip(ctx, u.Speaker, text)
		if err != nil {
			cmdapp.Log.Warnf("Dropping segment %d (%s): %v", i, u.Speaker, err)
			continue
		}
		clips = append(clips, clip)
	}

	if len(clips) == 0 {
		cmdapp.Log.Error("No audio segments produced")
		return s.writeFailed(ctx, outPath)
	}
	res := audio.Concat(clips, s.pause)
	if res.Duration() > s.fadeMin {
		res.FadeIn(s.fade)
		res.FadeOut(s.fade)
	}
	if err := s.encoder.Encode(audio.EncodeWAV(res), outPath); err != nil {
		return 0, errors.Wrap(err, "can't encode audio")
	}
	return res.Seconds(), nil
}

func (s *Service) makeClip(ctx context.Context, speaker string, text string) (*audio.Clip, error) {
	voice, err := s.voices.Get(speaker)
	if err != nil {
		cmdapp.Log.Warnf("No voice for %s: %v", speaker, err)
	}
	data, err := s.primary.Synthesize(ctx, text, voice)
	if err != nil && s.fallback != nil {
		cmdapp.Log.Warnf("Main synthesis failed, trying fallback: %v", err)
		data, err = s.fallback.Synthesize(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	return audio.DecodeWAV(data)
}

// writeFailed emits the spoken failure notice. When even that can't be
// voiced there is nothing left to try and the error goes to the caller.
func (s *Service) writeFailed(ctx context.Context, outPath string) (int, error) {
	clip, err := s.makeClip(ctx, "DIDI", failedPhrase)
	if err != nil {
		return 0, errors.Wrap(err, "can't voice failure notice")
	}
	if err := s.encoder.Encode(audio.EncodeWAV(clip), outPath); err != nil {
		return 0, errors.Wrap(err, "can't encode audio")
	}
	return failedSeconds, nil
}
