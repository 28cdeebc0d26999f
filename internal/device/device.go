// Package device derives human-readable device names from user-agent
// strings so audit entries can say where a login came from.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// UnknownDevice is reported when no user agent accompanies a request.
const UnknownDevice = "Unknown Device"

// ParseUserAgent condenses a raw user-agent header into "Browser on
// Platform". Unrecognized agents still produce a usable label.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnknownDevice
	}
	ua := useragent.New(raw)

	browser, version := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if major, _, found := strings.Cut(version, "."); found && major != "" {
		browser += " " + major
	} else if version != "" {
		browser += " " + version
	}

	platform := ua.OSInfo().FullName
	if platform == "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.Join(strings.Fields(browser+" on "+platform), " ")
}
