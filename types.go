package main

import (
	"context"

	"github.com/weatherly/weather-proxy/cache"
)

// HTTPRequester set default operations for clients
type HTTPRequester interface {
	Fetch(ctx context.Context, url string) ([]byte, int, error)
}

// IconCacher set default operations for the icon cache
type IconCacher interface {
	Get(code string) ([]byte, bool)
	Fill(code string, fill func() ([]byte, error)) ([]byte, error)
	Len() int
}

var _ IconCacher = (*cache.IconStore)(nil)
