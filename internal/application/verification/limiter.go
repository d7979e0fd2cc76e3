package verification

import (
	"fmt"
	"time"

	"github.com/campusboard-api/internal/domain"
)

// IssueLimiter throttles code issuance per contact address. Both thresholds
// are derived from the issuance history already in the code table (newest
// first), so there is no separate counter to keep in sync.
type IssueLimiter struct {
	resendInterval time.Duration
	maxPerHour     int
}

func NewIssueLimiter(resendInterval time.Duration, maxPerHour int) *IssueLimiter {
	return &IssueLimiter{resendInterval: resendInterval, maxPerHour: maxPerHour}
}

// Window is how far back issuance history matters.
const Window = time.Hour

// Allow decides whether another code may be issued now, given the issuance
// timestamps (Unix seconds, newest first) from the past Window.
func (l *IssueLimiter) Allow(stamps []int64, now time.Time) error {
	if len(stamps) == 0 {
		return nil
	}
	if now.Sub(time.Unix(stamps[0], 0)) < l.resendInterval {
		return fmt.Errorf("a code was sent moments ago, wait before requesting another: %w", domain.ErrRateLimited)
	}
	if len(stamps) >= l.maxPerHour {
		return fmt.Errorf("too many codes requested, try again later: %w", domain.ErrRateLimited)
	}
	return nil
}
