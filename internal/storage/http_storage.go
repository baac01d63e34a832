package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go-inspection-service/internal/logger"
	"go-inspection-service/pkg/validation"
)

const errorSnippetBytes = 200

// HTTPFetcherOptions configures an HTTPFetcher. Zero values fall back to
// the defaults used by the service.
type HTTPFetcherOptions struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	MaxFileSize    int64
	Resolver       *URLResolver
	Validator      *validation.URLValidator
	// Client overrides the HTTP client built from the timeouts above.
	Client *http.Client
}

// HTTPFetcher downloads resources over plain HTTP(S) with a connect
// deadline, a total deadline and a size cap.
type HTTPFetcher struct {
	client       *http.Client
	resolver     *URLResolver
	validator    *validation.URLValidator
	totalTimeout time.Duration
	maxFileSize  int64
}

// NewHTTPFetcher creates an HTTP resource fetcher
func NewHTTPFetcher(opts HTTPFetcherOptions) *HTTPFetcher {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = 10 * time.Second
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 50 * 1024 * 1024
	}
	if opts.Resolver == nil {
		opts.Resolver = NewURLResolver("backend", "3001")
	}
	if opts.Validator == nil {
		opts.Validator = validation.NewURLValidator()
	}

	client := opts.Client
	if client == nil {
		client = newHTTPClient(opts.ConnectTimeout, opts.TotalTimeout)
	}

	return &HTTPFetcher{
		client:       client,
		resolver:     opts.Resolver,
		validator:    opts.Validator,
		totalTimeout: opts.TotalTimeout,
		maxFileSize:  opts.MaxFileSize,
	}
}

func newHTTPClient(connectTimeout, totalTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,

		// Every request gets its own connection.
		DisableKeepAlives: true,

		TLSHandshakeTimeout:    connectTimeout,
		ResponseHeaderTimeout:  totalTimeout,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 16 << 10,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   totalTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects (limit: 3)")
			}
			return nil
		},
	}
}

// Fetch downloads a single resource. It never returns an error; failures
// are reported through the outcome.
func (h *HTTPFetcher) Fetch(ctx context.Context, resourceURL string, kind ResourceKind) (outcome FetchOutcome) {
	resolved := h.resolver.Resolve(resourceURL)
	log := logger.WithFields(logrus.Fields{
		"url":  resolved,
		"kind": kind,
	})
	if resolved != resourceURL {
		log.WithField("original_url", resourceURL).Debug("Rewrote loopback URL to internal host")
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = h.fail(log, resolved, kind, CauseUnexpected, 0, fmt.Errorf("panic during download: %v", r))
		}
	}()

	if err := h.validator.ValidateResourceURL(resolved); err != nil {
		return h.fail(log, resolved, kind, CauseNetworkError, 0, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.totalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return h.fail(log, resolved, kind, CauseNetworkError, 0, fmt.Errorf("invalid URL: %w", err))
	}
	req.Header.Set("Accept", acceptHeader(kind))
	req.Header.Set("User-Agent", "Go-Inspection-Service/1.0")

	log.Info("Downloading resource")

	resp, err := h.client.Do(req)
	if err != nil {
		return h.fail(log, resolved, kind, classifyError(ctx, err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
		log.WithField("body", string(snippet)).Debug("Non-OK response body")
		return h.fail(log, resolved, kind, CauseHTTPStatus, resp.StatusCode,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	payload, outcomeErr := readCapped(ctx, resp.Body, resp.ContentLength, h.maxFileSize)
	if outcomeErr != nil {
		return h.fail(log, resolved, kind, outcomeErr.Cause, 0, outcomeErr.Err)
	}

	log.WithField("bytes", len(payload)).Info("Downloaded resource")
	return Succeeded(resolved, kind, payload)
}

func (h *HTTPFetcher) fail(log *logrus.Entry, resourceURL string, kind ResourceKind, cause FailureCause, status int, err error) FetchOutcome {
	entry := log.WithError(err).WithField("cause", cause)
	switch cause {
	case CauseHTTPStatus:
		entry.WithField("status_code", status).Warn("Resource download returned non-OK status")
	case CauseSizeExceeded:
		entry.Warn("Resource exceeds size limit")
	default:
		entry.Error("Resource download failed")
	}
	return Failed(resourceURL, kind, &FetchFailure{Cause: cause, StatusCode: status, Err: err})
}

// readCapped reads at most maxSize bytes. A declared length over the cap is
// rejected before reading anything.
func readCapped(ctx context.Context, body io.Reader, declared, maxSize int64) ([]byte, *FetchFailure) {
	if declared > maxSize {
		return nil, &FetchFailure{
			Cause: CauseSizeExceeded,
			Err:   fmt.Errorf("declared size %d exceeds limit %d", declared, maxSize),
		}
	}

	payload, err := io.ReadAll(io.LimitReader(body, maxSize+1))
	if err != nil {
		return nil, &FetchFailure{Cause: classifyError(ctx, err), Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(payload)) > maxSize {
		return nil, &FetchFailure{
			Cause: CauseSizeExceeded,
			Err:   fmt.Errorf("body exceeds limit %d", maxSize),
		}
	}
	return payload, nil
}

func classifyError(ctx context.Context, err error) FailureCause {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	return CauseNetworkError
}

func acceptHeader(kind ResourceKind) string {
	switch kind {
	case ResourceImage:
		return "image/jpeg, image/png, image/webp, image/gif, */*"
	case ResourceAudio:
		return "audio/mpeg, audio/wav, audio/ogg, audio/webm, */*"
	default:
		return "*/*"
	}
}
