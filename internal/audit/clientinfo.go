package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// ClientInfo summarises a User-Agent as "<browser> <version> on <os>".
func ClientInfo(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return "bot"
	}
	name, version := parsed.Browser()
	if name == "" {
		return ""
	}
	info := name
	if major, _, _ := strings.Cut(version, "."); major != "" {
		info += " " + major
	}
	if osInfo := parsed.OS(); osInfo != "" {
		info += " on " + osInfo
	}
	return info
}
