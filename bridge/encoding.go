package bridge

import (
	"encoding/base64"
	"fmt"

	pool "github.com/libp2p/go-buffer-pool"
)

var ErrInvalidBody = fmt.Errorf("bridge: body is not valid base64")

// EncodeBody base64 encodes a body for transport.
func EncodeBody(body string) string {
	if body == "" {
		return ""
	}
	buf := pool.Get(base64.StdEncoding.EncodedLen(len(body)))
	defer pool.Put(buf)

	base64.StdEncoding.Encode(buf, []byte(body))
	return string(buf)
}

// DecodeBody reverses EncodeBody.
func DecodeBody(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	buf := pool.Get(base64.StdEncoding.DecodedLen(len(encoded)))
	defer pool.Put(buf)

	n, err := base64.StdEncoding.Decode(buf, []byte(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return string(buf[:n]), nil
}
