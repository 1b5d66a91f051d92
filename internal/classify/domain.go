package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// URL-like parameter keys checked for web-fetch tools, in order.
var urlParamKeys = []string{"url", "uri", "link", "href"}

var (
	urlFallbackRe = regexp.MustCompile(`https?://([A-Za-z0-9._-]+)`)

	// Network-reaching shell commands. First non-local host wins.
	curlWgetRe = regexp.MustCompile(`(?i)\b(?:curl|wget)\s+(?:-[A-Za-z-]+\s+)*(?:https?://)?([A-Za-z0-9._-]+\.[A-Za-z]{2,}|\d{1,3}(?:\.\d{1,3}){3})`)
	ncRe       = regexp.MustCompile(`(?i)\b(?:nc|ncat)\s+(?:-[A-Za-z-]+\s+)*([A-Za-z0-9._-]+)\s+\d{1,5}\b`)
	sshRe      = regexp.MustCompile(`(?i)\b(?:ssh|scp|rsync)\b[^\n;|&]*?\s[\w.-]+@([A-Za-z0-9._-]+)`)
)

// Private/loopback host prefixes. The 172.1/172.2/172.3 checks are a known,
// intentional approximation of the RFC1918 172.16.0.0/12 block: they define
// what counts as "external" and must not be tightened silently.
var privateHostPrefixes = []string{"192.168.", "10.", "172.1", "172.2", "172.3"}

// isLocalHost reports whether the hostname resolves to a loopback or
// private-range address by inspection.
func isLocalHost(host string) bool {
	host = strings.ToLower(host)
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	for _, prefix := range privateHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}

// domainFromURLParam extracts the external hostname from a web-fetch tool's
// URL parameter. Parse failures fall back to a regex scan for the first
// http(s) substring; anything local-looking yields "".
func domainFromURLParam(params map[string]any) string {
	var raw string
	for _, key := range urlParamKeys {
		if v, ok := params[key].(string); ok && v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		return ""
	}

	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		if isLocalHost(u.Hostname()) {
			return ""
		}
		return u.Hostname()
	}

	if m := urlFallbackRe.FindStringSubmatch(raw); m != nil && !isLocalHost(m[1]) {
		return m[1]
	}
	return ""
}

// domainFromShellText scans joined shell parameter text for network-reaching
// command forms (curl/wget to a URL, nc/ncat host port, ssh/scp/rsync
// user@host) and returns the first non-local host found.
func domainFromShellText(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{curlWgetRe, ncRe, sshRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !isLocalHost(m[1]) {
				return m[1]
			}
		}
	}
	return ""
}
