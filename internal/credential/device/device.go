// Package device turns a User-Agent header into the short label stored with
// each verification log entry.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const (
	unknownDevice = "Unknown Device"
	maxLabelLen   = 120
)

// Label returns "Browser on OS" (e.g. "Chrome on macOS", "Safari on iPhone").
// Mobile agents report their platform instead of the OS string.
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "Bot"
		}
		return truncate("Bot: " + name)
	}

	browser, _ := ua.Browser()
	os := ua.OS()
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			os = platform
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return truncate(strings.TrimSpace(browser + " on " + os))
}

func truncate(s string) string {
	if len(s) <= maxLabelLen {
		return s
	}
	return s[:maxLabelLen]
}
