package mailer

import (
	"strings"
	"testing"

	"github.com/nhle/epaper/internal/model"
)

func TestHTMLBody(t *testing.T) {
	body := HTMLBody(model.EmailMetadata{Edition: "Madurai", Publication: "Dinamalar", Date: "16/10/2026"})

	for _, want := range []string{
		"<p>Please find the PDF file attached.</p>",
		"Publication: Dinamalar",
		"Edition: Madurai",
		"Date: 16/10/2026",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected body to contain %q, got %q", want, body)
		}
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"reader@example.com", "reader@example.com", false},
		{"  reader@example.com ", "reader@example.com", false},
		{"Reader <reader@example.com>", "reader@example.com", false},
		{"", "", true},
		{"reader", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateAddress(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}
}
