package services

import (
	"fmt"
	"time"
)

// FormatCooldown renders remaining cooldown seconds as m:ss
func FormatCooldown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatRelative renders a history timestamp relative to now: minutes within
// the hour, hours within the day, otherwise day/month and time
func FormatRelative(ts, now time.Time) string {
	diff := now.Sub(ts)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dmin ago", int(max(diff, 0)/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return ts.Format("02/01 15:04")
	}
}
