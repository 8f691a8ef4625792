// Package format provides pure display formatting helpers for the
// rendering layer.
package format

import (
	"fmt"
	"time"
)

// MessageTime formats a message timestamp for display next to a bubble.
func MessageTime(t time.Time) string {
	return t.Format("15:04")
}

// SessionDate formats a session creation time for the session list.
// Same-day timestamps collapse to the clock time.
func SessionDate(t time.Time, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}
	if ty == ny {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

// AttachmentSize formats a file size in bytes for display.
func AttachmentSize(sizeBytes int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case sizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(sizeBytes)/mb)
	case sizeBytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(sizeBytes)/kb)
	default:
		return fmt.Sprintf("%d B", sizeBytes)
	}
}
