package export

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/pkg/httputil"
)

const maxImageBytes = 10 << 20

// Fetcher retrieves image bytes for embedding.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads images with a per-request timeout and retries.
type HTTPFetcher struct {
	Client  *http.Client
	Retries int
	Delay   time.Duration
	Logger  *zap.Logger
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration, retries int, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: timeout},
		Retries: retries,
		Delay:   500 * time.Millisecond,
		Logger:  logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return httputil.GetWithRetry(ctx, f.Client, url, maxImageBytes, f.Retries, f.Delay,
		func(attempt, max int, err error) {
			logger.Debug("image fetch failed, retrying",
				zap.String("url", url), zap.Int("attempt", attempt), zap.Int("max", max), zap.Error(err))
		})
}
