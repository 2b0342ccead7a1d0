package domain

import (
	"net/url"
	"strings"
)

// ResolveResource turns an editor resource URI into a filesystem path.
//
// file:// URIs resolve to their path. Any other URI (vscode-remote and
// friends) resolves to the substring starting at homeMarker when the decoded
// URI contains it, and to the generic URI path otherwise. An empty result
// means the resource could not be resolved.
func ResolveResource(uri, homeMarker string) string {
	if uri == "" {
		return ""
	}

	decoded, err := url.PathUnescape(uri)
	if err != nil {
		decoded = uri
	}

	// Path comes from the raw URI so it is unescaped exactly once
	parsed, err := parseLocator(uri)
	if err == nil && parsed.Scheme == "file" {
		return parsed.Path
	}

	if homeMarker != "" {
		if idx := strings.Index(decoded, homeMarker); idx >= 0 {
			return decoded[idx:]
		}
	}

	if err != nil {
		return ""
	}
	return parsed.Path
}

// parseLocator parses uri. Editors percent-encode the authority
// ("ssh-remote%2Bhost"), which url.Parse rejects; the authority is dropped
// in that case since only the path is used.
func parseLocator(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err == nil {
		return u, nil
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, err
	}
	path := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		path = rest[i:]
	}
	return url.Parse(scheme + "://" + path)
}
