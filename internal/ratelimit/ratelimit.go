// Package ratelimit guards the quote endpoints with a Redis-backed limiter.
// Quotes are the hot path: every cart toggle re-settles the whole cart, so a
// misbehaving client can generate real database load.
package ratelimit

import (
	"fmt"
	"net/http"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Middleware builds an HTTP middleware enforcing the formatted rate
// (e.g. "120-M" for 120 requests per minute) keyed by client IP.
func Middleware(client *redis.Client, formatted, prefix string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("init limiter store: %w", err)
	}
	mw := mhttp.NewMiddleware(limiter.New(store, rate))
	return mw.Handler, nil
}
