package markdown

import (
	"strings"
	"testing"
)

func TestToChatHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
		not   []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "bold and italic",
			input: "some **bold** and *italic* text",
			want:  []string{"<b>bold</b>", "<i>italic</i>"},
			not:   []string{"<strong>", "<em>", "<p>"},
		},
		{
			name:  "lists become bullets",
			input: "- first\n- second",
			want:  []string{"• first", "• second"},
			not:   []string{"<ul>", "<li>"},
		},
		{
			name:  "inline code kept",
			input: "run `go version` now",
			want:  []string{"<code>go version</code>"},
		},
		{
			name:  "headings stripped",
			input: "# Title\n\nbody",
			want:  []string{"Title", "body"},
			not:   []string{"<h1>"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ToChatHTML(tt.input)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in output, got %q", want, got)
				}
			}
			for _, not := range tt.not {
				if strings.Contains(got, not) {
					t.Errorf("did not expect %q in output, got %q", not, got)
				}
			}
		})
	}
}
