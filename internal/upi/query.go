package upi

import (
	"net/url"
	"strings"
)

// link is a normalized upi:// link split into parts. Segments keep their raw
// bytes so unchanged parameters can be written back verbatim.
type link struct {
	base     string
	hasQuery bool
	segments []string
	fragment string
	hasFrag  bool
}

// normalize trims source and rewrites a case-insensitive "upi://" or "upi:"
// prefix to "upi://".
func normalize(source string) (string, bool) {
	s := strings.TrimSpace(source)
	switch {
	case len(s) >= 6 && strings.EqualFold(s[:6], "upi://"):
		return "upi://" + s[6:], true
	case len(s) >= 4 && strings.EqualFold(s[:4], "upi:"):
		return "upi://" + s[4:], true
	default:
		return "", false
	}
}

func splitLink(normalized string) link {
	var l link
	rest := normalized
	if before, frag, ok := strings.Cut(rest, "#"); ok {
		rest = before
		l.fragment = frag
		l.hasFrag = true
	}
	base, query, ok := strings.Cut(rest, "?")
	l.base = base
	l.hasQuery = ok
	if ok && query != "" {
		l.segments = strings.Split(query, "&")
	}
	return l
}

func (l link) String() string {
	var b strings.Builder
	b.WriteString(l.base)
	if l.hasQuery || len(l.segments) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(l.segments, "&"))
	}
	if l.hasFrag {
		b.WriteByte('#')
		b.WriteString(l.fragment)
	}
	return b.String()
}

// splitSegment returns the decoded key, the decoded value and the raw value.
func splitSegment(segment string) (key, value, raw string) {
	k, v, _ := strings.Cut(segment, "=")
	return unescape(k), unescape(v), v
}

// unescape decodes a query component, keeping the raw text if it is not
// valid percent-encoding.
func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// values flattens the segments into a map. The last value wins.
func (l link) values() map[string]string {
	out := make(map[string]string, len(l.segments))
	for _, seg := range l.segments {
		if seg == "" {
			continue
		}
		k, v, _ := splitSegment(seg)
		out[k] = v
	}
	return out
}

// rawValues returns the last raw value per key and the order of first appearance.
func (l link) rawValues() (map[string]string, []string) {
	raw := make(map[string]string, len(l.segments))
	var order []string
	for _, seg := range l.segments {
		if seg == "" {
			continue
		}
		k, _, r := splitSegment(seg)
		if _, seen := raw[k]; !seen {
			order = append(order, k)
		}
		raw[k] = r
	}
	return raw, order
}
