package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "zero"},
		{5, "five"},
		{13, "thirteen"},
		{20, "twenty"},
		{25, "twenty five"},
		{100, "one hundred"},
		{150, "one hundred fifty"},
		{999, "nine hundred ninety nine"},
		{1500, "one thousand five hundred"},
		{1000000, "one million"},
		{2300000, "two million three hundred thousand"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NumberToWords(tt.n))
		})
	}
}

func TestOptimizeForSpeech(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "abbreviations expanded",
			input: "The AI startup hired a new CEO.",
			want:  "The artificial intelligence startup hired a new C.E.O..",
		},
		{
			name:  "aws and iot",
			input: "AWS connects IoT devices.",
			want:  "Amazon Web Services connects Internet of Things devices.",
		},
		{
			name:  "abbreviation inside word untouched",
			input: "The MAIN event.",
			want:  "The MAIN event.",
		},
		{
			name:  "currency",
			input: "They raised $25 million.",
			want:  "They raised twenty five dollars million.",
		},
		{
			name:  "percent",
			input: "Usage grew 40% this year.",
			want:  "Usage grew forty percent this year.",
		},
		{
			name:  "bare integer",
			input: "Over 150 companies signed up.",
			want:  "Over one hundred fifty companies signed up.",
		},
		{
			name:  "phone number spoken digit by digit",
			input: "Call 555-0123 for details.",
			want:  "Call five five five, zero one two three for details.",
		},
		{
			name:  "full phone number with area code",
			input: "Their line is 415-555-0123.",
			want:  "Their line is four one five, five five five, zero one two three.",
		},
		{
			name:  "url scheme stripped",
			input: "Read more at https://example.com/story.",
			want:  "Read more at example.com/story.",
		},
		{
			name:  "pause after connective",
			input: "However, the deal collapsed.",
			want:  "However... the deal collapsed.",
		},
		{
			name:  "plain text unchanged",
			input: "Nothing special about this sentence.",
			want:  "Nothing special about this sentence.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OptimizeForSpeech(tt.input))
		})
	}
}
