package lumen

import (
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		token   string
		want    Level
		wantErr bool
	}{
		{token: "1", want: 1},
		{token: "7", want: 7},
		{token: "9", want: 9},
		{token: "0", wantErr: true},
		{token: "x", wantErr: true},
		{token: "10", wantErr: true},
		{token: "", wantErr: true},
		{token: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseLevel(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %d, want %d", tt.token, got, tt.want)
			}
			if !got.Valid() {
				t.Errorf("Valid() = false for %d", got)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if got := DefaultLevel.String(); got != "5" {
		t.Errorf("DefaultLevel.String() = %q, want %q", got, "5")
	}
	if Level(0).Valid() || Level(10).Valid() {
		t.Error("Valid() accepted an out-of-range level")
	}
}
