package textnorm

import (
	"regexp"
	"testing"
)

var cleanPattern = regexp.MustCompile(`^[a-z0-9 ]*$`)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "urls and punctuation",
			input: "Garbage!!! on Main St. http://x.com",
			want:  "garbage on main st",
		},
		{
			name:  "www url",
			input: "streetlight broken www.example.com/report near park",
			want:  "streetlight broken near park",
		},
		{
			name:  "html tags",
			input: "<p>Water leak</p> in <b>Sector 5</b>",
			want:  "water leak in sector 5",
		},
		{
			name:  "accents folded",
			input: "Pothole near Café Montréal",
			want:  "pothole near cafe montreal",
		},
		{
			name:  "whitespace collapsed",
			input: "  open   drain \t near\nschool  ",
			want:  "open drain near school",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only punctuation",
			input: "!!!???...",
			want:  "",
		},
		{
			name:  "non-string input coerced",
			input: 12345,
			want:  "12345",
		},
		{
			// fmt prints nil as "<nil>", which the tag stripper removes
			name:  "nil input coerced",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Garbage!!! on Main St. http://x.com",
		"<div>Broken streetlight</div>",
		"already clean text 123",
		"",
		"Überfüllte Mülltonne, seit Tagen!",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalize_OutputAlphabet(t *testing.T) {
	inputs := []any{
		"Mixed CASE with Symbols #@$%",
		"tabs\tand\nnewlines",
		"https://no.trailing.space ",
		3.14159,
		[]string{"odd", "input"},
	}

	for _, in := range inputs {
		got := Normalize(in)
		if !cleanPattern.MatchString(got) {
			t.Errorf("Normalize(%v) = %q, contains characters outside [a-z0-9 ]", in, got)
		}
		if len(got) > 0 && (got[0] == ' ' || got[len(got)-1] == ' ') {
			t.Errorf("Normalize(%v) = %q, has leading or trailing space", in, got)
		}
	}
}
