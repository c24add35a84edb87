// Package throttle provides client-side request throttling. It is consulted
// before a request leaves the application, so that users who hammer a form
// get a friendly "try again in N minutes" instead of a wall of server errors.
//
// It is a UX throttle, not a security control: keys include a spoofable
// environment fingerprint, and the server is expected to enforce its own
// limits.
//
// # Key Concepts
//
//   - A [Config] sets, per endpoint category, how many calls are allowed per
//     window, how long a violator is blocked, and whether repeat violations
//     double the block (capped at one hour). [DefaultConfigs] holds the
//     built-in table; [LoadConfigs] overlays it from YAML.
//   - A key combines the category, the user id (or "anon") and a
//     [Fingerprint] of the caller's [Environment]. Each key is throttled
//     independently.
//   - [Limiter.Check] returns a [Result]: allowed with the remaining budget,
//     or denied with a retry-after in seconds and a message.
//   - [Limiter.Reset] clears a key early, e.g. after a successful login.
//   - A background sweep evicts entries idle for more than an hour. Call
//     [Limiter.Destroy] or [Limiter.Close] on shutdown to stop it.
//   - [store.Store] is the entry backend. An in-memory store is used by
//     default; SQLite, tiered and Redis stores are available.
//
// # Quick Start
//
//	limiter := throttle.New(throttle.WithEnvironment(&throttle.Environment{
//		UserAgent: "Mozilla/5.0",
//		Language:  "en-US",
//	}))
//	defer limiter.Destroy(context.Background())
//
//	res, _ := limiter.Check(ctx, throttle.CategoryAuth, throttle.AuthConfig, "")
//	if !res.Allowed {
//		fmt.Println(res.Message)
//	}
//
// [Limiter.Transport] wraps an http.RoundTripper to apply the same checks to
// outgoing requests that match a registered [Route].
package throttle
