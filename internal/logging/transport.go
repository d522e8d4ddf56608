package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
)

// Transport returns a middleware logging each exchange at debug level. The
// request and response pass through untouched, as does any error. Header
// values and bodies are never logged since they carry secrets.
func Transport(logger *zap.Logger) transport.Middleware {
	return func(next transport.Interface) transport.Interface {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if !logger.Core().Enabled(zap.DebugLevel) {
				return next.Perform(ctx, req)
			}

			log := logger.With(
				zap.String("exchange_id", uuid.NewString()),
				zap.String("method", req.Method),
				zap.String("url", req.URL),
			)
			log.Debug("http request",
				zap.Strings("headers", headerNames(req)),
				zap.Int("body_bytes", len(req.Body)),
			)

			start := time.Now()
			resp, err := next.Perform(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				log.Debug("http exchange failed", zap.Duration("elapsed", elapsed), zap.Error(err))
				return nil, err
			}
			log.Debug("http response",
				zap.Int("status", resp.StatusCode),
				zap.Int("body_bytes", len(resp.Body)),
				zap.Duration("elapsed", elapsed),
			)
			return resp, nil
		})
	}
}

func headerNames(req *transport.Request) []string {
	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	return names
}
