package format

import (
	"testing"
	"time"
)

func TestMessageTime(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)
	if got := MessageTime(ts); got != "09:05" {
		t.Errorf("MessageTime = %q, want 09:05", got)
	}
}

func TestSessionDate(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same day", time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC), "09:05"},
		{"same year", time.Date(2025, 1, 2, 9, 5, 0, 0, time.UTC), "Jan 2"},
		{"older", time.Date(2024, 12, 31, 9, 5, 0, 0, time.UTC), "Dec 31, 2024"},
	}

	for _, tt := range tests {
		if got := SessionDate(tt.t, now); got != tt.want {
			t.Errorf("%s: SessionDate = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAttachmentSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := AttachmentSize(tt.size); got != tt.want {
			t.Errorf("AttachmentSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
