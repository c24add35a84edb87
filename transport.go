package throttle

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Transport wraps an http.RoundTripper so that requests matching a registered
// route are checked against the route's category before they are sent.
// Requests that match no route pass through untouched.
func (l *Limiter) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{limiter: l, base: base}
}

// transport implements http.RoundTripper and checks limits before
// forwarding requests to the underlying transport.
type transport struct {
	limiter *Limiter
	base    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	route, ok := t.limiter.match(req)
	if !ok {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	userID := UserIDFromContext(ctx)

	res, err := t.limiter.CheckCategory(ctx, route.Category, userID)
	if err != nil {
		// The server still enforces its own limits; don't fail the call on a
		// local store error.
		t.limiter.logger.Warn("throttle check failed, sending request",
			zap.String("route", route.Name),
			zap.Error(err),
		)
	}

	if !res.Allowed {
		if route.Strategy != LogOnly {
			return nil, &LimitExceededError{
				Category: route.Category,
				Result:   res,
				retryAt:  time.Now().Add(res.RetryAfterDuration()),
			}
		}
		t.limiter.logger.Warn("throttle limit exceeded (log only)",
			zap.String("route", route.Name),
			zap.String("category", route.Category),
			zap.Int64("retry_after", res.RetryAfter),
		)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if route.ResetOnSuccess && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := t.limiter.Reset(ctx, route.Category, userID); err != nil {
			t.limiter.logger.Warn("throttle reset after success failed",
				zap.String("route", route.Name),
				zap.Error(err),
			)
		}
	}
	return resp, nil
}
