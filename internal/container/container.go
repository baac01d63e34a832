package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go-inspection-service/internal/analyzer"
	"go-inspection-service/internal/config"
	"go-inspection-service/internal/factory"
	"go-inspection-service/internal/logger"
	"go-inspection-service/internal/observer"
	"go-inspection-service/internal/service"
	"go-inspection-service/internal/storage"
	"go-inspection-service/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	registry          *prometheus.Registry
	fetcher           storage.Fetcher
	events            observer.Subject
	inspectionService service.InspectionService
	handler           http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fetcher, err := factory.NewStorageFactory(cfg).CreateStorage(factory.RoutedStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(observer.NewMetricsObserver(registry))

	scorers := factory.NewScorerSet()
	inspectionService := service.NewInspectionService(fetcher, scorers.Exterior, scorers.Engine, events, service.Options{
		RequestTimeout:       cfg.RequestTimeout,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		RandFactory:          analyzer.NewRandFactory(cfg.RandomSeed),
	})

	handler := transport.NewHandler(inspectionService, registry, cfg)

	return &Container{
		config:            cfg,
		registry:          registry,
		fetcher:           fetcher,
		events:            events,
		inspectionService: inspectionService,
		handler:           handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// InspectionService returns the wired service
func (c *Container) InspectionService() service.InspectionService {
	return c.inspectionService
}
