package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationResolve(t *testing.T) {
	tests := []struct {
		name     string
		loc      *Location
		raw      string
		expected string
	}{
		{"relative", &Location{Base: "https://h/"}, "/x", "https://h/x"},
		{"absolute passthrough", &Location{Base: "https://h/"}, "https://h/y", "https://h/y"},
		{"file passthrough", &Location{Base: "https://h/"}, "file:///a/b", "file:///a/b"},
		{"document fallback", &Location{Document: "http://doc/dir/page.html"}, "img.png", "http://doc/dir/img.png"},
		{"base wins over document", &Location{Base: "https://base/", Document: "https://doc/"}, "z", "https://base/z"},
		{"other scheme is resolved", &Location{Base: "https://h/a/"}, "b", "https://h/a/b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := tc.loc.Resolve(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.expected, u)
		})
	}
}

func TestLocationWithoutBase(t *testing.T) {
	as := require.New(t)

	var loc *Location
	_, err := loc.Resolve("/x")
	as.ErrorIs(err, ErrNoBaseLocation)

	u, err := loc.Resolve("http://h/x")
	as.NoError(err)
	as.Equal("http://h/x", u)
}
