package ui

import (
	"context"
	"errors"
	"testing"
)

func TestLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Big Man Walking26", "Big Man Walking26"},
		{"Telco Cloud\n- BRKSPG-1565", "Telco Cloud - BRKSPG-1565"},
		{"\tleading and trailing  ", "leading and trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Line(tt.in); got != tt.want {
			t.Errorf("Line(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"first", "0\tSession 1\n", 0, false},
		{"last", "2\tSession 3\n", 2, false},
		{"out of range", "5\tSession 6\n", -1, true},
		{"garbage", "Session\n", -1, true},
		{"empty", "\n", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.out, 3)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseSelection(%q) = %d, %v; want %d, wantErr %v", tt.out, got, err, tt.want, tt.wantErr)
			}
		})
	}

	if _, err := parseSelection("", 3); !errors.Is(err, ErrCancelled) {
		t.Errorf("empty output should count as cancelled, got %v", err)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, err := Select(context.Background(), "Pick", nil); err == nil {
		t.Error("Select() with no items should fail")
	}
}
