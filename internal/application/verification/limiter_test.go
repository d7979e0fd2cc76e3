package verification

import (
	"testing"
	"time"

	"github.com/campusboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsFirstIssue(t *testing.T) {
	l := NewIssueLimiter(60*time.Second, 5)
	assert.NoError(t, l.Allow(nil, time.Now()))
}

func TestLimiterBlocksRapidResend(t *testing.T) {
	l := NewIssueLimiter(60*time.Second, 5)
	now := time.Now()

	err := l.Allow([]int64{now.Add(-10 * time.Second).Unix()}, now)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestLimiterAllowsAfterInterval(t *testing.T) {
	l := NewIssueLimiter(60*time.Second, 5)
	now := time.Now()

	err := l.Allow([]int64{now.Add(-61 * time.Second).Unix()}, now)
	assert.NoError(t, err)
}

func TestLimiterBlocksHourlyCap(t *testing.T) {
	l := NewIssueLimiter(60*time.Second, 5)
	now := time.Now()

	// Five codes spread over the past hour, all outside the resend interval.
	stamps := []int64{
		now.Add(-5 * time.Minute).Unix(),
		now.Add(-15 * time.Minute).Unix(),
		now.Add(-25 * time.Minute).Unix(),
		now.Add(-35 * time.Minute).Unix(),
		now.Add(-45 * time.Minute).Unix(),
	}
	err := l.Allow(stamps, now)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestLimiterAllowsUnderHourlyCap(t *testing.T) {
	l := NewIssueLimiter(60*time.Second, 5)
	now := time.Now()

	stamps := []int64{
		now.Add(-10 * time.Minute).Unix(),
		now.Add(-20 * time.Minute).Unix(),
		now.Add(-30 * time.Minute).Unix(),
		now.Add(-40 * time.Minute).Unix(),
	}
	assert.NoError(t, l.Allow(stamps, now))
}
