package fetch

import (
	"net/http"
	"strings"

	"go.miragespace.co/swbridge/bridge"
)

// Request is an outbound or inbound request. Treat it as immutable once
// constructed; use Clone to derive a modified copy.
type Request struct {
	URL     string
	Method  string
	Headers Headers
}

// RequestInit is the options bag accepted by NewRequest and Fetch. URL is
// only consulted by Fetch.
type RequestInit struct {
	URL     string
	Method  string
	Headers Headers
}

func NewRequest(loc *Location, rawURL string, init *RequestInit) (*Request, error) {
	u, err := loc.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	req := &Request{
		URL:    u,
		Method: http.MethodGet,
	}
	if init != nil {
		if init.Method != "" {
			req.Method = strings.ToUpper(init.Method)
		}
		req.Headers = init.Headers
	}
	if req.Headers == nil {
		req.Headers = NewHeaders()
	}

	return req, nil
}

// CreateRequest is shorthand for NewRequest with a method and headers.
func CreateRequest(loc *Location, method, rawURL string, headers Headers) (*Request, error) {
	return NewRequest(loc, rawURL, &RequestInit{
		Method:  method,
		Headers: headers,
	})
}

func (r *Request) Clone() *Request {
	return &Request{
		URL:     r.URL,
		Method:  r.Method,
		Headers: r.Headers.Clone(),
	}
}

func (r *Request) wire() bridge.TrueFetchMessage {
	headers := r.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	return bridge.TrueFetchMessage{
		Method:  r.Method,
		URL:     r.URL,
		Headers: headers,
	}
}
