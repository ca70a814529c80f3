package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	as := require.New(t)

	h := NewHeaders()

	h.Set("x-a", "1")
	v, ok := h.Get("x-a")
	as.True(ok)
	as.Equal("1", v)

	h.Append("x-b", "v1")
	h.Append("x-b", "v2")
	all, ok := h.GetAll("x-b")
	as.True(ok)
	as.Equal([]string{"v1", "v2"}, all)

	h.Set("x-b", "v3")
	all, _ = h.GetAll("x-b")
	as.Equal([]string{"v3"}, all)

	h.Delete("x-b")
	as.False(h.Has("x-b"))
	_, ok = h.Get("x-b")
	as.False(ok)
	_, ok = h.GetAll("x-b")
	as.False(ok)

	// names are case-sensitive
	as.False(h.Has("X-A"))
}

func TestHeadersClone(t *testing.T) {
	as := require.New(t)

	h := NewHeaders()
	h.Append("a", "1")

	c := h.Clone()
	c.Append("a", "2")

	all, _ := h.GetAll("a")
	as.Equal([]string{"1"}, all)

	var nilHeaders Headers
	as.NotNil(nilHeaders.Clone())
}

func TestHeadersHTTP(t *testing.T) {
	as := require.New(t)

	src := http.Header{}
	src.Add("Content-Type", "text/plain")
	src.Add("X-Multi", "a")
	src.Add("X-Multi", "b")

	h := HeadersFromHTTP(src)
	all, ok := h.GetAll("X-Multi")
	as.True(ok)
	as.Equal([]string{"a", "b"}, all)

	h.Append("x-lower", "1")
	out := h.HTTP()
	as.Equal("1", out.Get("X-Lower"))
	as.Equal([]string{"a", "b"}, out.Values("X-Multi"))
}
