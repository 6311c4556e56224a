package term

import "testing"

func TestScrub(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "plain text",
			want: "plain text",
		},
		{
			name: "color codes",
			in:   "\x1b[31mHello\x1b[0m\n",
			want: "Hello\n",
		},
		{
			name: "osc title sequence",
			in:   "\x1b]0;title\x07Body",
			want: "Body",
		},
		{
			name: "private mode csi",
			in:   "\x1b[?25hcursor\x1b[?2004l",
			want: "cursor",
		},
		{
			name: "erase line",
			in:   "\x1b[2Kfile.txt\n",
			want: "file.txt\n",
		},
		{
			name: "bare escape removed",
			in:   "a\x1bb",
			want: "ab",
		},
		{
			name: "truncated sequence keeps text",
			in:   "tail\x1b[12",
			want: "tail[12",
		},
		{
			name: "newlines and tabs preserved",
			in:   "a\tb\nc",
			want: "a\tb\nc",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scrub(tt.in)
			if got != tt.want {
				t.Errorf("Scrub(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScrubIdempotent(t *testing.T) {
	inputs := []string{
		"plain",
		"\x1b[31mred\x1b[0m",
		"\x1b]0;title\x07body\x1b[?25h",
		"mixed \x1b garbage \x1b[1;2;3m text",
		"tail\x1b[12",
	}

	for _, in := range inputs {
		once := Scrub(in)
		twice := Scrub(once)
		if once != twice {
			t.Errorf("Scrub not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
