package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/FACorreiaa/go-food-course-suggestions/config"
)

// New returns a resty client with the shared connect/read timeouts and an
// instrumented transport. Callers set base URL and headers.
func New(cfg config.HTTPClientConfig, readTimeout time.Duration) *resty.Client {
	if readTimeout <= 0 {
		readTimeout = cfg.ReadTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return resty.New().
		SetTransport(otelhttp.NewTransport(transport)).
		SetTimeout(readTimeout)
}

// IsTimeout reports whether err is a client side timeout or deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
