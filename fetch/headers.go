package fetch

import "net/http"

// Headers maps a header name to its values in insertion order. Names are
// case-sensitive and never validated.
type Headers map[string][]string

func NewHeaders() Headers {
	return make(Headers)
}

func (h Headers) Append(name, value string) {
	h[name] = append(h[name], value)
}

func (h Headers) Delete(name string) {
	delete(h, name)
}

// Get returns the first value stored under name.
func (h Headers) Get(name string) (string, bool) {
	v, ok := h[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h Headers) GetAll(name string) ([]string, bool) {
	v, ok := h[name]
	return v, ok
}

func (h Headers) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// Set replaces every value under name with value.
func (h Headers) Set(name, value string) {
	h[name] = []string{value}
}

func (h Headers) Clone() Headers {
	if h == nil {
		return NewHeaders()
	}
	c := make(Headers, len(h))
	for k, v := range h {
		c[k] = append([]string(nil), v...)
	}
	return c
}

// HeadersFromHTTP copies an http.Header, keeping its canonical names.
func HeadersFromHTTP(header http.Header) Headers {
	return Headers(header).Clone()
}

// HTTP copies h into an http.Header. Names are canonicalized on the way.
func (h Headers) HTTP() http.Header {
	header := make(http.Header, len(h))
	for k, values := range h {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	return header
}
