package fetch

import (
	"fmt"
	"net/url"
	"regexp"
)

var ErrNoBaseLocation = fmt.Errorf("fetch: relative url without a base location")

var protocolRegexp = regexp.MustCompile(`^(file|https?)://`)

// Location resolves request urls against the client's base location.
type Location struct {
	// Base overrides Document when set.
	Base string
	// Document is the location of the active document.
	Document string
}

func (l *Location) base() string {
	if l == nil {
		return ""
	}
	if l.Base != "" {
		return l.Base
	}
	return l.Document
}

// Resolve returns raw unchanged when it already carries a file, http or https
// scheme, otherwise raw resolved against the base location.
func (l *Location) Resolve(raw string) (string, error) {
	if protocolRegexp.MatchString(raw) {
		return raw, nil
	}

	b := l.base()
	if b == "" {
		return "", fmt.Errorf("%w: %q", ErrNoBaseLocation, raw)
	}

	base, err := url.Parse(b)
	if err != nil {
		return "", fmt.Errorf("fetch: invalid base location: %w", err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("fetch: invalid url: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}
