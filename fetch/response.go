package fetch

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.miragespace.co/swbridge/bridge"
)

// Response carries a decoded body. Status defaults to 200.
type Response struct {
	Body    string
	URL     string
	Status  int
	Headers Headers

	jsonOnce   sync.Once
	jsonResult *Future[any]
}

func NewResponse(body, url string, status int, headers Headers) *Response {
	if status == 0 {
		status = http.StatusOK
	}
	if headers == nil {
		headers = NewHeaders()
	}
	return &Response{
		Body:    body,
		URL:     url,
		Status:  status,
		Headers: headers,
	}
}

// ResponseFromWire decodes the base64 body of a bridge response.
func ResponseFromWire(w bridge.WireResponse) (*Response, error) {
	body, err := bridge.DecodeBody(w.Body)
	if err != nil {
		return nil, err
	}
	return NewResponse(body, w.URL, w.Status, w.Headers), nil
}

// JSON parses Body once and returns the same settled future on every call. A
// body that is empty or not valid JSON resolves to nil.
func (r *Response) JSON() *Future[any] {
	r.jsonOnce.Do(func() {
		var data any
		if r.Body != "" {
			if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
				data = nil
			}
		}
		r.jsonResult = Resolved(data)
	})
	return r.jsonResult
}

func (r *Response) Clone() *Response {
	return NewResponse(r.Body, r.URL, r.Status, r.Headers.Clone())
}

// ToDict returns the bridge form of r with the body base64 encoded.
func (r *Response) ToDict() bridge.WireResponse {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	return bridge.WireResponse{
		Body:    bridge.EncodeBody(r.Body),
		URL:     r.URL,
		Status:  status,
		Headers: r.Headers,
	}
}
