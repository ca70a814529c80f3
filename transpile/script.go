package transpile

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// IsTypescript reports whether name looks like a TypeScript source file.
func IsTypescript(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".ts" || ext == ".mts"
}

// LoadScript reads a handler script, transpiling TypeScript sources when the
// build supports it.
func LoadScript(ctx context.Context, name string, reader io.Reader) (string, error) {
	if IsTypescript(name) {
		return transpileTypescript(ctx, reader)
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
