package router

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// ClientTableSource yields the HTML document holding the connected-clients
// table. The live HTTP client and the file replay source both satisfy it, so
// the rest of the pipeline never knows where a page came from.
type ClientTableSource interface {
	FetchTable(ctx context.Context) (string, error)
}

// FileSource replays a previously saved status page. Used for offline runs
// and tests.
type FileSource struct {
	Path string
}

func (s FileSource) FetchTable(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("read saved page: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return string(data), nil
}
