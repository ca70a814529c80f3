//go:build typescript

package transpile

import (
	"context"
	"io"

	"github.com/clarkmcc/go-typescript"
)

func transpileTypescript(ctx context.Context, source io.Reader) (string, error) {
	return typescript.TranspileCtx(ctx, source)
}
