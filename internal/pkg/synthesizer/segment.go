package synthesizer

import (
	"regexp"
	"strings"
)

// Utterance is one speaker turn of the script
type Utterance struct {
	Speaker string
	Text    string
}

var (
	speakerRegexp = regexp.MustCompile(`(?i)^(didi|bhaiya)\s*:\s*`)
	marksRegexp   = regexp.MustCompile("[*_#`\\[\\]()]")
	bangRegexp    = regexp.MustCompile(`!{2,}`)
	whatRegexp    = regexp.MustCompile(`\?{2,}`)
	spaceRegexp   = regexp.MustCompile(`  +`)
)

// Segment splits a script into speaker turns.
// Lines without a label continue the previous turn, leading text goes to DIDI.
func Segment(script string) []Utterance {
	var res []Utterance
	speaker := "DIDI"
	var parts []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text != "" {
			res = append(res, Utterance{Speaker: speaker, Text: text})
		}
		parts = nil
	}
	for _, l := range strings.Split(script, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if m := speakerRegexp.FindStringSubmatch(l); m != nil {
			flush()
			speaker = strings.ToUpper(m[1])
			l = l[len(m[0]):]
			if l == "" {
				continue
			}
		}
		parts = append(parts, l)
	}
	flush()
	return res
}

// CleanForTTS drops formatting marks a synthesis voice would read aloud
func CleanForTTS(text string) string {
	text = strings.ReplaceAll(text, "...", ", ")
	text = marksRegexp.ReplaceAllString(text, "")
	text = bangRegexp.ReplaceAllString(text, "!")
	text = whatRegexp.ReplaceAllString(text, "?")
	text = spaceRegexp.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
