package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-inspection-service/internal/analyzer"
	apperrors "go-inspection-service/internal/errors"
	"go-inspection-service/internal/logger"
	"go-inspection-service/internal/observer"
	"go-inspection-service/internal/storage"
	"go-inspection-service/pkg/models"
)

// InspectionService runs a full inspection: fetch, score, assemble.
type InspectionService interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error)
}

// Options tunes the orchestrator. Zero values fall back to defaults.
type Options struct {
	RequestTimeout       time.Duration
	MaxConcurrentFetches int
	RandFactory          analyzer.RandFactory
	Clock                func() time.Time
}

type analysisState string

const (
	stateReceived  analysisState = "RECEIVED"
	stateFetching  analysisState = "FETCHING"
	stateFailed    analysisState = "FAILED"
	stateScoring   analysisState = "SCORING"
	stateAssembled analysisState = "ASSEMBLED"
	stateReturned  analysisState = "RETURNED"
)

var errFetchAborted = errors.New("fetch task aborted")

type inspectionService struct {
	fetcher  storage.Fetcher
	exterior analyzer.ExteriorAnalyzer
	engine   analyzer.EngineAnalyzer
	events   observer.Subject

	requestTimeout time.Duration
	maxConcurrent  int
	newRand        analyzer.RandFactory
	now            func() time.Time
}

type fetchResults struct {
	images []storage.FetchOutcome
	audio  *storage.FetchOutcome
}

// NewInspectionService creates a new inspection service
func NewInspectionService(
	fetcher storage.Fetcher,
	exterior analyzer.ExteriorAnalyzer,
	engine analyzer.EngineAnalyzer,
	events observer.Subject,
	opts Options,
) InspectionService {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = 8
	}
	if opts.RandFactory == nil {
		opts.RandFactory = analyzer.NewRandFactory(0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if events == nil {
		events = observer.NewEventPublisher()
	}

	return &inspectionService{
		fetcher:        fetcher,
		exterior:       exterior,
		engine:         engine,
		events:         events,
		requestTimeout: opts.RequestTimeout,
		maxConcurrent:  opts.MaxConcurrentFetches,
		newRand:        opts.RandFactory,
		now:            opts.Clock,
	}
}

// Analyze fetches every resource in the request, scores what arrived and
// builds the response. It returns an AppError on failure.
func (s *inspectionService) Analyze(ctx context.Context, req models.AnalysisRequest) (resp *models.AnalysisResponse, err error) {
	start := time.Now()
	audioURL := req.AudioURLOrEmpty()
	log := logger.WithFields(logrus.Fields{
		"job_id":     req.JobID,
		"image_urls": len(req.ImageURLs),
		"has_audio":  audioURL != "",
	})

	s.transition(log, stateReceived)
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		JobID:     req.JobID,
	})

	defer func() {
		if err != nil {
			s.transition(log.WithError(err), stateFailed)
			event := observer.AnalysisEvent{
				EventType:      observer.AnalysisFailed,
				JobID:          req.JobID,
				ProcessingTime: time.Since(start),
				ErrorMessage:   err.Error(),
			}
			if appErr, ok := apperrors.AsAppError(err); ok {
				event.ErrorType = string(appErr.Type)
			}
			s.events.NotifyObservers(ctx, event)
			return
		}
		s.events.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisCompleted,
			JobID:          req.JobID,
			ProcessingTime: time.Since(start),
			Success:        true,
		})
	}()

	if len(req.ImageURLs) == 0 {
		return nil, apperrors.NewValidationError("At least one image URL is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	s.transition(log, stateFetching)

	done := make(chan fetchResults, 1)
	go func() {
		done <- s.fetchAll(ctx, req.JobID, req.ImageURLs, audioURL)
	}()

	var results fetchResults
	select {
	case results = <-done:
	case <-ctx.Done():
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.Canceled) {
			return nil, apperrors.NewCanceledError("Request canceled before analysis finished.", ctxErr)
		}
		return nil, apperrors.NewTimeoutError("Request timeout. Analysis took too long.", ctxErr)
	}

	images := make([][]byte, 0, len(results.images))
	for _, outcome := range results.images {
		if outcome.OK() {
			images = append(images, outcome.Payload)
		}
	}
	if len(images) == 0 {
		log.WithField("attempted_urls", req.ImageURLs).Error("Failed to download any images")
		return nil, apperrors.NewAllResourcesFailedError(req.ImageURLs)
	}

	var audio []byte
	if results.audio != nil && results.audio.OK() {
		audio = results.audio.Payload
	}

	log.WithFields(logrus.Fields{
		"images_downloaded": len(images),
		"audio_downloaded":  audio != nil,
	}).Info("Resources downloaded")

	s.transition(log, stateScoring)
	exterior, engine, err := s.score(images, audio)
	if err != nil {
		return nil, err
	}

	resp = Assemble(req.JobID, exterior, engine, len(images), audio != nil, s.now())
	s.transition(log, stateAssembled)

	log.WithFields(logrus.Fields{
		"exterior_score": resp.ExteriorScore,
		"engine_score":   resp.EngineScore,
		"issues":         len(resp.Issues),
	}).Info("Analysis complete")

	s.transition(log, stateReturned)
	return resp, nil
}

// fetchAll runs the image batch on a bounded pool and the audio fetch on
// its own goroutine, then waits for both. Each image result lands in the
// slot matching its request index.
func (s *inspectionService) fetchAll(ctx context.Context, jobID string, imageURLs []string, audioURL string) fetchResults {
	results := fetchResults{images: make([]storage.FetchOutcome, len(imageURLs))}

	var audioWG sync.WaitGroup
	if audioURL != "" {
		audioWG.Add(1)
		go func() {
			defer audioWG.Done()
			outcome := s.fetchOne(ctx, jobID, 0, audioURL, storage.ResourceAudio)
			results.audio = &outcome
		}()
	}

	pool := NewWorkerPool(min(s.maxConcurrent, len(imageURLs)))
	pool.Start()
	for i, imageURL := range imageURLs {
		aborted := storage.Failed(imageURL, storage.ResourceImage, &storage.FetchFailure{
			Cause: storage.CauseUnexpected,
			Err:   errFetchAborted,
		})
		aborted.Index = i
		results.images[i] = aborted

		pool.Submit(func() {
			results.images[i] = s.fetchOne(ctx, jobID, i, imageURL, storage.ResourceImage)
		})
	}
	pool.Close()

	pool.Wait()
	audioWG.Wait()
	return results
}

func (s *inspectionService) fetchOne(ctx context.Context, jobID string, index int, resourceURL string, kind storage.ResourceKind) (outcome storage.FetchOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = storage.Failed(resourceURL, kind, &storage.FetchFailure{
				Cause: storage.CauseUnexpected,
				Err:   fmt.Errorf("panic during fetch: %v", r),
			})
		}
		outcome.Index = index

		event := observer.AnalysisEvent{
			EventType:      observer.ResourceFetched,
			JobID:          jobID,
			ResourceURL:    outcome.URL,
			ResourceKind:   string(kind),
			ProcessingTime: time.Since(start),
			Success:        outcome.OK(),
		}
		if !outcome.OK() {
			event.EventType = observer.ResourceFetchFailed
			event.FailureCause = string(outcome.Failure.Cause)
			event.ErrorMessage = outcome.Failure.Error()
		}
		s.events.NotifyObservers(ctx, event)
	}()

	return s.fetcher.Fetch(ctx, resourceURL, kind)
}

func (s *inspectionService) score(images [][]byte, audio []byte) (exterior, engine models.AnalysisOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError("Analysis failed", fmt.Errorf("panic during scoring: %v", r))
		}
	}()

	rng := s.newRand()
	exterior = s.exterior.Score(images, rng)
	engine = s.engine.Score(audio, rng)
	return exterior, engine, nil
}

func (s *inspectionService) transition(log *logrus.Entry, state analysisState) {
	log.WithField("state", state).Info("Analysis state transition")
}
