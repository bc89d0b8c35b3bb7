package audio

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// DefaultSampleRate is used for generated silence when no clip dictates a rate
const DefaultSampleRate = 22050

// Clip is decoded mono 16-bit PCM audio
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Millis returns the clip length in milliseconds
func (c *Clip) Millis() int {
	if c.SampleRate == 0 {
		return 0
	}
	return int(int64(len(c.Samples)) * 1000 / int64(c.SampleRate))
}

// Seconds returns the clip length in full seconds, truncated
func (c *Clip) Seconds() int {
	return c.Millis() / 1000
}

// Duration returns the clip length
func (c *Clip) Duration() time.Duration {
	return time.Duration(c.Millis()) * time.Millisecond
}

// Silence makes a silent clip of the wanted duration
func Silence(d time.Duration, sampleRate int) *Clip {
	n := int(int64(sampleRate) * d.Milliseconds() / 1000)
	return &Clip{SampleRate: sampleRate, Samples: make([]int16, n)}
}

// Concat joins clips in order inserting pause between every adjacent pair
// (not after the last one). Empty input yields one second of silence.
// Clips with differing sample rates are resampled to the highest one.
func Concat(clips []*Clip, pause time.Duration) *Clip {
	rate := 0
	for _, c := range clips {
		if c.SampleRate > rate {
			rate = c.SampleRate
		}
	}
	if rate == 0 {
		return Silence(time.Second, DefaultSampleRate)
	}
	gap := Silence(pause, rate)
	res := &Clip{SampleRate: rate}
	for i, c := range clips {
		if i > 0 {
			res.Samples = append(res.Samples, gap.Samples...)
		}
		res.Samples = append(res.Samples, c.resample(rate).Samples...)
	}
	return res
}

// FadeIn applies a linear volume ramp over the first d of the clip
func (c *Clip) FadeIn(d time.Duration) {
	n := c.fadeLen(d)
	for i := 0; i < n; i++ {
		c.Samples[i] = int16(int64(c.Samples[i]) * int64(i) / int64(n))
	}
}

// FadeOut applies a linear volume ramp over the last d of the clip
func (c *Clip) FadeOut(d time.Duration) {
	n := c.fadeLen(d)
	l := len(c.Samples)
	for i := 0; i < n; i++ {
		c.Samples[l-1-i] = int16(int64(c.Samples[l-1-i]) * int64(i) / int64(n))
	}
}

func (c *Clip) fadeLen(d time.Duration) int {
	n := int(int64(c.SampleRate) * d.Milliseconds() / 1000)
	if n > len(c.Samples) {
		n = len(c.Samples)
	}
	return n
}

func (c *Clip) resample(rate int) *Clip {
	if c.SampleRate == rate {
		return c
	}
	n := int(int64(len(c.Samples)) * int64(rate) / int64(c.SampleRate))
	res := &Clip{SampleRate: rate, Samples: make([]int16, n)}
	for i := 0; i < n; i++ {
		res.Samples[i] = c.Samples[int(int64(i)*int64(c.SampleRate)/int64(rate))]
	}
	return res
}

// DecodeWAV parses 16-bit PCM WAV data. Stereo input is downmixed to mono.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a WAV file")
	}
	var sampleRate, channels, bits int
	var pcm []byte
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if pos+size > len(data) {
			size = len(data) - pos
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("broken fmt chunk")
			}
			format := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
			if format != 1 {
				return nil, errors.Errorf("unsupported WAV format %d, PCM expected", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
			bits = int(binary.LittleEndian.Uint16(data[pos+14 : pos+16]))
		case "data":
			pcm = data[pos : pos+size]
		}
		pos += size
		if size%2 == 1 { // chunks are word aligned
			pos++
		}
	}
	if sampleRate == 0 || pcm == nil {
		return nil, errors.New("no fmt or data chunk in WAV")
	}
	if bits != 16 {
		return nil, errors.Errorf("unsupported bit depth %d, 16 expected", bits)
	}
	if channels != 1 && channels != 2 {
		return nil, errors.Errorf("unsupported channel count %d", channels)
	}
	frames := len(pcm) / (2 * channels)
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		if channels == 1 {
			samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		} else {
			l := int16(binary.LittleEndian.Uint16(pcm[i*4 : i*4+2]))
			r := int16(binary.LittleEndian.Uint16(pcm[i*4+2 : i*4+4]))
			samples[i] = int16((int32(l) + int32(r)) / 2)
		}
	}
	return &Clip{SampleRate: sampleRate, Samples: samples}, nil
}

// EncodeWAV serializes the clip as a mono 16-bit PCM WAV file
func EncodeWAV(c *Clip) []byte {
	dataLen := len(c.Samples) * 2
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(c.SampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))              // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))             // bits
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, c.Samples)
	return buf.Bytes()
}
