package throttle

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mssola/useragent"
)

// serverFingerprint is used when no environment signals are available. Every
// such caller shares one bucket per category and user.
const serverFingerprint = "server"

// Environment holds the low-entropy signals a fingerprint is derived from.
type Environment struct {
	UserAgent      string
	Language       string
	ScreenWidth    int
	ScreenHeight   int
	TimezoneOffset int // minutes, as reported by the client
}

// Fingerprint reduces env to a short stable identifier. It is not a secure
// identifier and is trivially spoofed; it only separates casual anonymous
// callers. A nil env yields a constant shared fingerprint.
func Fingerprint(env *Environment) string {
	if env == nil {
		return serverFingerprint
	}

	s := strings.Join([]string{
		env.UserAgent,
		env.Language,
		strconv.Itoa(env.ScreenWidth),
		strconv.Itoa(env.ScreenHeight),
		strconv.Itoa(env.TimezoneOffset),
	}, "|")

	return strconv.FormatUint(xxhash.Sum64String(s), 36)
}

// EnvironmentFromRequest collects the signals available on an inbound HTTP
// request. Screen size and timezone are not sent by browsers and stay zero.
// The user agent is reduced to browser, major version, OS and platform, so a
// minor browser update keeps the same fingerprint.
func EnvironmentFromRequest(r *http.Request) *Environment {
	lang := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	return &Environment{
		UserAgent: normalizeUserAgent(r.UserAgent()),
		Language:  strings.TrimSpace(lang),
	}
}

func normalizeUserAgent(s string) string {
	if s == "" {
		return ""
	}

	ua := useragent.New(s)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")
	if major == "" {
		major = "unknown"
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}
	return browser + "/" + major + " (" + os + "; " + platform + ")"
}

// Key derives the store key for a category, an optional user id and a
// fingerprint. Caller-supplied segments are escaped so that a ':' inside a
// user id cannot produce another caller's key.
func Key(category, userID, fingerprint string) string {
	user := "anon"
	if userID != "" {
		user = "user:" + escapeSegment(userID)
	}
	return escapeSegment(category) + ":" + user + ":" + fingerprint
}

// escapeSegment escapes '_' first, then the ':' delimiter, so distinct
// inputs always map to distinct outputs.
func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	return strings.ReplaceAll(s, ":", "_c")
}
