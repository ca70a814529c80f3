//go:build !typescript

package transpile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadScript(t *testing.T) {
	as := require.New(t)

	as.True(IsTypescript("handler.ts"))
	as.True(IsTypescript("HANDLER.MTS"))
	as.False(IsTypescript("handler.js"))

	s, err := LoadScript(context.Background(), "handler.js", strings.NewReader("1+1"))
	as.NoError(err)
	as.Equal("1+1", s)

	_, err = LoadScript(context.Background(), "handler.ts", strings.NewReader("let a: number = 1"))
	as.ErrorIs(err, ErrTypescriptNotEnabled)
}
