package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "voter-1", wantErr: false},
		{name: "numeric", id: "42", wantErr: false},
		{name: "cycle absorber", id: "cycle:a", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "path traversal", id: "../etc/passwd", wantErr: true},
		{name: "slash", id: "a/b", wantErr: true},
		{name: "backslash", id: "a\\b", wantErr: true},
		{name: "control char", id: "a\nb", wantErr: true},
		{name: "too long", id: strings.Repeat("x", 257), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEngine(t *testing.T) {
	for _, name := range []string{"linear", "lp", "iterative"} {
		if err := ValidateEngine(name); err != nil {
			t.Errorf("ValidateEngine(%q) error = %v", name, err)
		}
	}
	for _, name := range []string{"", "quantum", "LINEAR"} {
		if err := ValidateEngine(name); err == nil {
			t.Errorf("ValidateEngine(%q) accepted invalid engine", name)
		}
	}
}
