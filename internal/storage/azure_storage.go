package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"

	"go-inspection-service/internal/logger"
)

const blobHostSuffix = ".blob.core.windows.net"

// BlobFetcher downloads resources that live in an Azure storage account
// using shared key credentials instead of anonymous HTTP.
type BlobFetcher struct {
	client       *azblob.Client
	host         string
	totalTimeout time.Duration
	maxFileSize  int64
}

// BlobFetcherOptions configures a BlobFetcher.
type BlobFetcherOptions struct {
	AccountName    string
	AccountKey     string
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	MaxFileSize    int64
	// Transport overrides the HTTP client built from the timeouts above.
	Transport policy.Transporter
}

// NewBlobFetcher creates a fetcher bound to a single storage account.
// The SDK retry policy is disabled: a failed download is reported once.
func NewBlobFetcher(opts BlobFetcherOptions) (*BlobFetcher, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = 10 * time.Second
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 50 * 1024 * 1024
	}

	credential, err := azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = newHTTPClient(opts.ConnectTimeout, opts.TotalTimeout)
	}

	host := opts.AccountName + blobHostSuffix
	client, err := azblob.NewClientWithSharedKeyCredential("https://"+host+"/", credential, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry:     policy.RetryOptions{MaxRetries: -1},
			Transport: transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobFetcher{
		client:       client,
		host:         host,
		totalTimeout: opts.TotalTimeout,
		maxFileSize:  opts.MaxFileSize,
	}, nil
}

// Handles reports whether the URL points into this fetcher's account.
func (b *BlobFetcher) Handles(resourceURL string) bool {
	parsed, err := url.Parse(resourceURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), b.host)
}

// Fetch downloads a blob. Like HTTPFetcher it never returns an error.
func (b *BlobFetcher) Fetch(ctx context.Context, resourceURL string, kind ResourceKind) (outcome FetchOutcome) {
	log := logger.WithFields(logrus.Fields{
		"url":     resourceURL,
		"kind":    kind,
		"backend": "azure_blob",
	})

	defer func() {
		if r := recover(); r != nil {
			outcome = b.fail(log, resourceURL, kind, &FetchFailure{
				Cause: CauseUnexpected,
				Err:   fmt.Errorf("panic during blob download: %v", r),
			})
		}
	}()

	containerName, blobName, err := parseBlobURL(resourceURL)
	if err != nil {
		return b.fail(log, resourceURL, kind, &FetchFailure{Cause: CauseNetworkError, Err: err})
	}

	ctx, cancel := context.WithTimeout(ctx, b.totalTimeout)
	defer cancel()

	log.Info("Downloading blob")

	resp, err := b.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			return b.fail(log, resourceURL, kind, &FetchFailure{
				Cause:      CauseHTTPStatus,
				StatusCode: respErr.StatusCode,
				Err:        fmt.Errorf("blob download failed: %s", respErr.ErrorCode),
			})
		}
		return b.fail(log, resourceURL, kind, &FetchFailure{Cause: classifyError(ctx, err), Err: err})
	}
	defer resp.Body.Close()

	var declared int64 = -1
	if resp.ContentLength != nil {
		declared = *resp.ContentLength
	}

	payload, failure := readCapped(ctx, resp.Body, declared, b.maxFileSize)
	if failure != nil {
		return b.fail(log, resourceURL, kind, failure)
	}

	log.WithField("bytes", len(payload)).Info("Downloaded blob")
	return Succeeded(resourceURL, kind, payload)
}

func (b *BlobFetcher) fail(log *logrus.Entry, resourceURL string, kind ResourceKind, failure *FetchFailure) FetchOutcome {
	log.WithError(failure.Err).WithFields(logrus.Fields{
		"cause":       failure.Cause,
		"status_code": failure.StatusCode,
	}).Warn("Blob download failed")
	return Failed(resourceURL, kind, failure)
}

// parseBlobURL accepts both https://acct.blob.core.windows.net/container/path/to/blob
// and the legacy form https://acct.blob.core.windows.net/container?blob=name.
func parseBlobURL(resourceURL string) (string, string, error) {
	parsed, err := url.Parse(resourceURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	containerName, blobName, _ := strings.Cut(path, "/")
	if q := parsed.Query().Get("blob"); q != "" && blobName == "" {
		blobName = q
	}

	if containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %s", resourceURL)
	}
	return containerName, blobName, nil
}
