package factory

import (
	"fmt"

	"go-inspection-service/internal/analyzer"
	"go-inspection-service/internal/config"
	"go-inspection-service/internal/storage"
	"go-inspection-service/pkg/validation"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage fetches resources over plain HTTP(S)
	HTTPStorage StorageType = "http"
	// AzureStorage fetches blobs from the configured storage account
	AzureStorage StorageType = "azure"
	// RoutedStorage picks Azure for blob URLs and HTTP for everything else
	RoutedStorage StorageType = "routed"
)

// ScorerSet bundles the two scorers the service needs
type ScorerSet struct {
	Exterior analyzer.ExteriorAnalyzer
	Engine   analyzer.EngineAnalyzer
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.Fetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.Fetcher, error) {
	switch storageType {
	case HTTPStorage:
		return f.httpFetcher(), nil
	case AzureStorage:
		return f.blobFetcher()
	case RoutedStorage:
		var blob *storage.BlobFetcher
		if f.cfg.AzureEnabled() {
			b, err := f.blobFetcher()
			if err != nil {
				return nil, err
			}
			blob = b
		}
		return storage.NewRouter(f.httpFetcher(), blob), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) httpFetcher() *storage.HTTPFetcher {
	return storage.NewHTTPFetcher(storage.HTTPFetcherOptions{
		ConnectTimeout: f.cfg.FetchConnectTimeout,
		TotalTimeout:   f.cfg.FetchTotalTimeout,
		MaxFileSize:    f.cfg.MaxFileSize,
		Resolver:       storage.NewURLResolver(f.cfg.BackendHost, f.cfg.BackendPort),
		Validator:      validation.NewURLValidator(f.cfg.AllowedResourceHosts...),
	})
}

func (f *storageFactory) blobFetcher() (*storage.BlobFetcher, error) {
	if !f.cfg.AzureEnabled() {
		return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
	}
	return storage.NewBlobFetcher(storage.BlobFetcherOptions{
		AccountName:    f.cfg.AzureStorageAccount,
		AccountKey:     f.cfg.AzureStorageKey,
		ConnectTimeout: f.cfg.FetchConnectTimeout,
		TotalTimeout:   f.cfg.FetchTotalTimeout,
		MaxFileSize:    f.cfg.MaxFileSize,
	})
}

// NewScorerSet returns the default scorers
func NewScorerSet() ScorerSet {
	return ScorerSet{
		Exterior: analyzer.NewExteriorScorer(),
		Engine:   analyzer.NewEngineScorer(),
	}
}
