package ratelimit

import "time"

// Allow reports whether a new action is permitted given the most recent prior
// action of the same kind. A nil last means no prior action exists. The
// comparison uses the absolute difference so the policy stays symmetric under
// clock corrections; exactly cooldown elapsed is still throttled.
func Allow(last *time.Time, now time.Time, cooldown time.Duration) bool {
	if last == nil {
		return true
	}
	diff := now.Sub(*last)
	if diff < 0 {
		diff = -diff
	}
	return diff > cooldown
}
