package client

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mirrorkeep/iaget/pkg/version"
)

const (
	defaultConnectTimeout  = 5 * time.Second
	defaultMaxConnsPerHost = 8
)

// Options configures the HTTP client shared by the transfer and search
// layers. Retries are not handled here: an attempt has to re-probe the
// destination's on-disk offset before the request can be re-issued, so the
// retry loop lives above the client (see pkg/retry).
type Options struct {
	// ConnectTimeout bounds connection establishment only, not the full
	// request. Streaming downloads must not carry a whole-request timeout.
	ConnectTimeout time.Duration

	// UserAgent overrides the default iaget/<version> header.
	UserAgent string

	// MaxConnsPerHost bounds connections to any single host.
	MaxConnsPerHost int
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.transport.RoundTrip(req)
}

// New returns an http.Client with the appropriate transport settings.
func New(opts Options) *http.Client {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	maxConnsPerHost := opts.MaxConnsPerHost
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = defaultMaxConnsPerHost
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("iaget/%s", version.GetVersion())
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: &userAgentTransport{transport: baseTransport, userAgent: userAgent},
	}
}
