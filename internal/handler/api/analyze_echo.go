package api

import (
	"errors"

	models "ScamDunk/internal/domain/models"
	"ScamDunk/internal/domain/service"
	"ScamDunk/internal/usecase"
	xhttp "ScamDunk/pkg/http"
	xlogger "ScamDunk/pkg/logger"
	"ScamDunk/pkg/util"

	"github.com/labstack/echo/v4"
)

const retryAfterSeconds = 60

// AnalyzeEchoHandler exposes the analysis endpoints over Echo.
type AnalyzeEchoHandler struct {
	logger  *xlogger.Logger
	analyze *usecase.AnalyzeUseCase
	prober  service.HealthProber
}

func NewAnalyzeEchoHandler(logger *xlogger.Logger, analyze *usecase.AnalyzeUseCase, prober service.HealthProber) *AnalyzeEchoHandler {
	return &AnalyzeEchoHandler{logger: logger, analyze: analyze, prober: prober}
}

func (h *AnalyzeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/health", h.Health)
}

func (h *AnalyzeEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Ticker = util.NormalizeTicker(req.Ticker)

	assessment, err := h.analyze.AnalyzeAsset(c.Request().Context(), req.ToAnalysisRequest())
	if err != nil {
		var upstream *models.UpstreamDataError
		if errors.As(err, &upstream) {
			return xhttp.ServiceUnavailableResponse(c, retryAfterSeconds, models.ServiceUnavailable{
				Error:      "service_unavailable",
				RetryAfter: retryAfterSeconds,
				APIName:    upstream.APIName,
				Ticker:     upstream.Ticker,
			})
		}
		h.logger.Error("analyze usecase error",
			xlogger.String("ticker", req.Ticker),
			xlogger.Error(err),
		)
		return xhttp.InternalServerErrorResponse(c)
	}

	return xhttp.SuccessResponse(c, assessment)
}

func (h *AnalyzeEchoHandler) Health(c echo.Context) error {
	backend := "unavailable"
	if h.prober.Probe(c.Request().Context()) {
		backend = "healthy"
	}
	return xhttp.SuccessResponse(c, models.HealthStatus{
		Status:           "healthy",
		InferenceBackend: backend,
	})
}
