//go:build !typescript

package transpile

import (
	"context"
	"fmt"
	"io"
)

var ErrTypescriptNotEnabled = fmt.Errorf("transpile: TypeScript handlers need a build with -tags typescript")

func transpileTypescript(_ context.Context, _ io.Reader) (string, error) {
	return "", ErrTypescriptNotEnabled
}
