package scriptgen

import (
	"regexp"
	"strings"
)

var (
	labelRegexp   = regexp.MustCompile(`(?i)^\s*\**\s*(didi|bhaiya)\s*\**\s*:\s*`)
	phoneRegexp   = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)
	emailRegexp   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	urlRegexp     = regexp.MustCompile(`(https?://|www\.)\S+`)
	contactRegexp = regexp.MustCompile(`(?i)\b(call|contact|whatsapp|phone|mobile|helpline)\b[^\n]*\d{5,}[^\n]*`)
)

// cleanScript normalizes model output: drops markdown leftovers, uppercases speaker labels
func cleanScript(s string) string {
	lines := strings.Split(s, "\n")
	res := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		l = strings.ReplaceAll(l, "**", "")
		if m := labelRegexp.FindStringSubmatch(l); m != nil {
			l = strings.ToUpper(m[1]) + ": " + l[len(m[0]):]
		}
		res = append(res, l)
	}
	return strings.TrimSpace(strings.Join(res, "\n"))
}

// Redact strips contact details a model may have invented: phones, emails, links
func Redact(s string) string {
	s = contactRegexp.ReplaceAllString(s, "")
	s = phoneRegexp.ReplaceAllString(s, "")
	s = emailRegexp.ReplaceAllString(s, "")
	s = urlRegexp.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	res := make([]string, 0, len(lines))
	blank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
			l = ""
		} else {
			blank = 0
			l = strings.TrimRight(l, " \t")
		}
		res = append(res, l)
	}
	return strings.TrimSpace(strings.Join(res, "\n"))
}
