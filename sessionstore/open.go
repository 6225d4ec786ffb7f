package sessionstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Open selects a store from a URL: "memory" (or empty), redis:// / rediss://, or
// postgres:// / postgresql://. The returned closer releases connections.
func Open(ctx context.Context, url string, ttl time.Duration) (Store, io.Closer, error) {
	switch {
	case url == "" || url == "memory":
		return NewMemory(), closerFunc(func() error { return nil }), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		r, err := NewRedis(ctx, url, ttl)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		p, err := NewPostgres(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return p, closerFunc(func() error { p.Close(); return nil }), nil
	}
	return nil, nil, fmt.Errorf("unsupported session store url %q", url)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
