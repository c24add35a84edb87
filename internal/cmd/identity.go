package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryhazerus/throttle"
)

// identityFlags selects the key a command operates on.
type identityFlags struct {
	user      string
	userAgent string
	language  string
	screen    string
	tzOffset  int
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "user id (empty for anonymous)")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "fingerprint: user agent")
	cmd.Flags().StringVar(&f.language, "language", "", "fingerprint: language tag")
	cmd.Flags().StringVar(&f.screen, "screen", "", "fingerprint: screen size as WxH")
	cmd.Flags().IntVar(&f.tzOffset, "tz-offset", 0, "fingerprint: timezone offset in minutes")
}

// environment returns nil when no fingerprint flag was given, which selects
// the shared server fingerprint.
func (f *identityFlags) environment(cmd *cobra.Command) (*throttle.Environment, error) {
	changed := false
	for _, name := range []string{"user-agent", "language", "screen", "tz-offset"} {
		if cmd.Flags().Changed(name) {
			changed = true
		}
	}
	if !changed {
		return nil, nil
	}

	env := &throttle.Environment{
		UserAgent:      f.userAgent,
		Language:       f.language,
		TimezoneOffset: f.tzOffset,
	}
	if f.screen != "" {
		if _, err := fmt.Sscanf(f.screen, "%dx%d", &env.ScreenWidth, &env.ScreenHeight); err != nil {
			return nil, fmt.Errorf("invalid --screen %q: want WxH", f.screen)
		}
	}
	return env, nil
}
