package throttle

import "net/http"

// Route maps outgoing request URLs onto an endpoint category.
type Route struct {
	Name           string   // unique identifier, e.g. "login"
	Pattern        string   // request pattern, e.g. "POST api.example.com/v1/auth/*"
	Category       string   // endpoint category whose config applies, e.g. "auth"
	Strategy       Strategy // Block or LogOnly
	ResetOnSuccess bool     // clear the key after a 2xx response
}

// Register adds a route to be checked by the limiter's transport. Routes are
// matched in registration order; the first match wins.
func (l *Limiter) Register(r Route) {
	l.routesMu.Lock()
	defer l.routesMu.Unlock()
	l.routes = append(l.routes, r)
}

// Routes returns a copy of all registered routes.
func (l *Limiter) Routes() []Route {
	l.routesMu.RLock()
	defer l.routesMu.RUnlock()

	out := make([]Route, len(l.routes))
	copy(out, l.routes)
	return out
}

func (l *Limiter) match(req *http.Request) (Route, bool) {
	l.routesMu.RLock()
	defer l.routesMu.RUnlock()

	for _, r := range l.routes {
		if matchRequest(req.Method, req.URL.String(), r.Pattern) {
			return r, true
		}
	}
	return Route{}, false
}
