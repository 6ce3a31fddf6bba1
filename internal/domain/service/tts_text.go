package service

import (
	"regexp"
	"strconv"
	"strings"
)

// Abbreviations a synthesizer would otherwise spell out awkwardly,
// applied in order on whole words only.
var speechAbbreviations = []struct {
	abbr   string
	spoken string
}{
	{"AI", "artificial intelligence"},
	{"AWS", "Amazon Web Services"},
	{"API", "A.P.I."},
	{"CEO", "C.E.O."},
	{"CTO", "C.T.O."},
	{"CFO", "C.F.O."},
	{"IoT", "Internet of Things"},
	{"ML", "machine learning"},
	{"UI", "user interface"},
	{"URL", "U.R.L."},
	{"GPU", "G.P.U."},
	{"CPU", "C.P.U."},
	{"SaaS", "software as a service"},
	{"VC", "venture capital"},
	{"VR", "virtual reality"},
	{"AR", "augmented reality"},
}

// Sentence openers that read better with a short pause after them.
var discourseConnectives = []string{
	"However",
	"Meanwhile",
	"Additionally",
	"Furthermore",
	"Moreover",
	"Interestingly",
	"Finally",
}

var (
	urlSchemeRe = regexp.MustCompile(`https?://`)
	currencyRe  = regexp.MustCompile(`\$(\d+)`)
	percentRe   = regexp.MustCompile(`(\d+)%`)
	phoneRe     = regexp.MustCompile(`\b(?:\d{3}[-.]){1,2}\d{4}\b`)
	numberRe    = regexp.MustCompile(`\b\d+\b`)
)

var abbreviationRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(speechAbbreviations))
	for i, a := range speechAbbreviations {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(a.abbr) + `\b`)
	}
	return res
}()

// OptimizeForSpeech rewrites script text into a form that reads
// naturally when synthesized: URL schemes dropped, abbreviations
// expanded, currency, percentages, phone numbers and bare integers
// spelled out, and pauses inserted after discourse connectives.
func OptimizeForSpeech(text string) string {
	text = urlSchemeRe.ReplaceAllString(text, "")

	for i, a := range speechAbbreviations {
		text = abbreviationRes[i].ReplaceAllString(text, a.spoken)
	}

	text = currencyRe.ReplaceAllStringFunc(text, func(match string) string {
		return NumberToWords(parseDigits(match[1:])) + " dollars"
	})
	text = percentRe.ReplaceAllStringFunc(text, func(match string) string {
		return NumberToWords(parseDigits(match[:len(match)-1])) + " percent"
	})
	text = phoneRe.ReplaceAllStringFunc(text, spokenPhoneNumber)
	text = numberRe.ReplaceAllStringFunc(text, func(match string) string {
		return NumberToWords(parseDigits(match))
	})

	for _, conn := range discourseConnectives {
		text = strings.ReplaceAll(text, conn+", ", conn+"... ")
	}

	return text
}

// spokenPhoneNumber spells a phone number digit by digit, with a short
// pause between the separator-delimited groups.
func spokenPhoneNumber(s string) string {
	var groups []string
	var group []string
	flush := func() {
		if len(group) > 0 {
			groups = append(groups, strings.Join(group, " "))
			group = nil
		}
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			group = append(group, smallNumberWords[r-'0'])
		} else {
			flush()
		}
	}
	flush()
	return strings.Join(groups, ", ")
}

func parseDigits(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var smallNumberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "ten", "eleven", "twelve", "thirteen", "fourteen",
	"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tensNumberWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var scaleWords = []string{"", "thousand", "million", "billion"}

// NumberToWords spells out a non-negative integer in plain English
// words, e.g. 1500 becomes "one thousand five hundred".
func NumberToWords(n int64) string {
	if n == 0 {
		return "zero"
	}
	if n < 0 {
		return "minus " + NumberToWords(-n)
	}

	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}

	var parts []string
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i] == 0 {
			continue
		}
		part := wordsBelowThousand(groups[i])
		if i < len(scaleWords) && scaleWords[i] != "" {
			part += " " + scaleWords[i]
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, " ")
}

func wordsBelowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, smallNumberWords[n/100], "hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		word := tensNumberWords[n/10]
		if n%10 != 0 {
			word += " " + smallNumberWords[n%10]
		}
		parts = append(parts, word)
	case n > 0:
		parts = append(parts, smallNumberWords[n])
	}
	return strings.Join(parts, " ")
}
