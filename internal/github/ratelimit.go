package github

import (
	"math"
	"net/http"

	"golang.org/x/time/rate"
)

// limitedTransport wraps a RoundTripper with a token bucket limiter shared by
// every request of the client.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// newLimitedTransport returns base unchanged when rps is not positive.
func newLimitedTransport(base http.RoundTripper, rps float64) http.RoundTripper {
	if rps <= 0 {
		return base
	}
	burst := int(math.Ceil(rps))
	return &limitedTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
