package throttle

// Strategy defines what the transport does with a denied request.
type Strategy int

const (
	// Block fails the request with a *LimitExceededError.
	Block Strategy = iota
	// LogOnly logs the denial and lets the request through. Useful while
	// tuning a category's limits.
	LogOnly
)

func (s Strategy) String() string {
	switch s {
	case Block:
		return "Block"
	case LogOnly:
		return "LogOnly"
	default:
		return "Unknown"
	}
}
