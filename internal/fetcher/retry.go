package fetcher

import (
	"net/http"
	"time"

	"invader-notifier/internal/config"
)

// statusClass is what the fetch loop does with a response status.
type statusClass int

const (
	statusOK statusClass = iota
	statusRetry
	statusFail
)

func classifyStatus(code int) statusClass {
	switch {
	case code >= 200 && code <= 299:
		return statusOK
	case code == http.StatusTooManyRequests, code >= 500:
		return statusRetry
	default:
		return statusFail
	}
}

// backoffPolicy is the jittered exponential delay between fetch retries.
type backoffPolicy struct {
	min       time.Duration
	max       time.Duration
	jitterPct int
}

func newBackoffPolicy(cfg config.HttpConfig) backoffPolicy {
	return backoffPolicy{
		min:       time.Duration(cfg.BackoffMinMS) * time.Millisecond,
		max:       time.Duration(cfg.BackoffMaxMS) * time.Millisecond,
		jitterPct: cfg.JitterPct,
	}
}

// delay returns min*2^(retry-1) capped at max, moved by up to jitterPct
// percent. r is a uniform sample in [0, 1). The result never drops below min.
func (p backoffPolicy) delay(retry int, r float64) time.Duration {
	d := p.min
	for i := 1; i < retry && d < p.max; i++ {
		d *= 2
	}
	d = min(d, p.max)

	spread := float64(d) * float64(p.jitterPct) / 100
	d += time.Duration((r*2 - 1) * spread)

	return max(d, p.min)
}
