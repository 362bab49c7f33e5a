package countdown

import "fmt"

const pausedTitle = "paused"

// FormatRemaining renders seconds as zero-padded HH:MM:SS. Hours are not
// wrapped at 24.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Title prefixes original with the countdown, or with a paused marker.
func Title(st State, original string) string {
	if st.Paused {
		return fmt.Sprintf("[%s] %s", pausedTitle, original)
	}
	return fmt.Sprintf("[%s] %s", FormatRemaining(st.Remaining), original)
}
