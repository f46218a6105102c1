package main

import (
	"fmt"
	"time"
)

// joinedAtLayout matches the timestamp format registry.Agent.JoinedAt and
// wire.Message.Timestamp are stamped with.
const joinedAtLayout = "2006-01-02T15:04:05.000Z"

const (
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// formatAge renders a count of elapsed seconds as "45s", "1m30s" or "2h02m"
// (negative counts clamp to "0s"), for "joined N ago" style status lines.
func formatAge(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	if secs < 3600 {
		return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
}

// joinedAge renders the elapsed time since v (a registry joined_at timestamp)
// for the REPL's human-facing /members listing, or "" if v isn't parseable.
func joinedAge(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return ""
	}
	t, err := time.Parse(joinedAtLayout, s)
	if err != nil {
		return ""
	}
	return formatAge(int64(time.Since(t).Seconds()))
}
