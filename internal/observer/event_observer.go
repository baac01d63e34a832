package observer

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	JobID          string                 `json:"job_id"`
	ResourceURL    string                 `json:"resource_url,omitempty"`
	ResourceKind   string                 `json:"resource_kind,omitempty"`
	FailureCause   string                 `json:"failure_cause,omitempty"`
	ErrorType      string                 `json:"error_type,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a request enters the pipeline
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a response was assembled
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the request ends in an error
	AnalysisFailed EventType = "analysis_failed"
	// ResourceFetched when a single image or audio clip was downloaded
	ResourceFetched EventType = "resource_fetched"
	// ResourceFetchFailed when a single download failed softly
	ResourceFetchFailed EventType = "resource_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"job_id":          event.JobID,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ResourceURL != "" {
		fields["url"] = event.ResourceURL
		fields["kind"] = event.ResourceKind
	}
	if event.FailureCause != "" {
		fields["cause"] = event.FailureCause
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Inspection analysis started")
	case AnalysisCompleted:
		entry.Info("Inspection analysis completed")
	case AnalysisFailed:
		entry.Error("Inspection analysis failed")
	case ResourceFetched:
		entry.Debug("Resource fetched successfully")
	case ResourceFetchFailed:
		entry.Warn("Resource fetch failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver turns analysis events into Prometheus metrics
type MetricsObserver struct {
	analysesStarted   prometheus.Counter
	analysesCompleted prometheus.Counter
	analysesFailed    *prometheus.CounterVec
	analysesActive    prometheus.Gauge
	analysisDuration  prometheus.Histogram
	resourceFetches   *prometheus.CounterVec
}

// NewMetricsObserver registers the service metrics with reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)
	return &MetricsObserver{
		analysesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "inspection_analyses_started_total",
			Help: "Total number of inspection analyses started",
		}),
		analysesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "inspection_analyses_completed_total",
			Help: "Total number of inspection analyses completed",
		}),
		analysesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_analyses_failed_total",
			Help: "Total number of inspection analyses failed",
		}, []string{"error_type"}),
		analysesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inspection_analyses_active",
			Help: "Number of inspection analyses in flight",
		}),
		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "inspection_analysis_duration_seconds",
			Help:    "Duration of completed inspection analyses in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		resourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inspection_resource_fetches_total",
			Help: "Total number of resource fetches by kind and result",
		}, []string{"kind", "result"}),
	}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisStarted:
		o.analysesStarted.Inc()
		o.analysesActive.Inc()
	case AnalysisCompleted:
		o.analysesCompleted.Inc()
		o.analysesActive.Dec()
		o.analysisDuration.Observe(event.ProcessingTime.Seconds())
	case AnalysisFailed:
		o.analysesFailed.WithLabelValues(event.ErrorType).Inc()
		o.analysesActive.Dec()
	case ResourceFetched:
		o.resourceFetches.WithLabelValues(event.ResourceKind, "ok").Inc()
	case ResourceFetchFailed:
		o.resourceFetches.WithLabelValues(event.ResourceKind, event.FailureCause).Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order before returning. A panicking observer does not stop the others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
