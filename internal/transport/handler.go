package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"go-inspection-service/internal/config"
	apperrors "go-inspection-service/internal/errors"
	"go-inspection-service/internal/logger"
	"go-inspection-service/internal/service"
	"go-inspection-service/pkg/models"
)

const serviceName = "car-inspection-analysis"

// NewHandler builds the gin engine serving the inspection API.
func NewHandler(svc service.InspectionService, gatherer prometheus.Gatherer, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		cors(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyze(svc))
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

func analyze(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := validateRequestBody(body); err != nil {
			_ = c.Error(apperrors.NewValidationError(err.Error(), err))
			return
		}

		var req models.AnalysisRequest
		if err := json.Unmarshal(body, &req); err != nil {
			_ = c.Error(apperrors.NewValidationError("invalid request format", err))
			return
		}

		log := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"job_id":     req.JobID,
		})
		log.Info("Received analysis request")

		resp, err := svc.Analyze(c.Request.Context(), req)
		if err != nil {
			if _, ok := apperrors.AsAppError(err); !ok {
				err = apperrors.NewInternalError(fmt.Sprintf("Analysis failed: %v", err), err)
			}
			_ = c.Error(err)
			return
		}

		log.WithFields(logrus.Fields{
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"exterior_score":     resp.ExteriorScore,
			"engine_score":       resp.EngineScore,
		}).Info("Analysis request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}

func respondError(c *gin.Context, code int, err error) {
	message := err.Error()
	if appErr, ok := apperrors.AsAppError(err); ok {
		message = appErr.Message
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(requestIDKey),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	status := http.StatusText(code)
	if code == apperrors.StatusClientClosedRequest {
		status = "Client Closed Request"
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   status,
		Message: message,
	})
}
