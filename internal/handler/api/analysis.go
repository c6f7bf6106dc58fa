package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	icache "FlowSentry/internal/service/cache"
	"FlowSentry/internal/service/metrics"
	"FlowSentry/internal/service/ratelimit"
	"FlowSentry/internal/usecase"
	xhttp "FlowSentry/pkg/http"
	xlogger "FlowSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler serves the detection engine over HTTP. GET /api/analysis
// runs a fresh on-demand evaluation; /api/confirmation and /api/report answer
// from the last confirmed result and fall back to a fresh run on a miss.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	store    domrepo.MarketStore
	agg      *usecase.SignalAggregator
	pipeline *usecase.ConfirmationPipeline
	results  domrepo.ResultStore
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	store domrepo.MarketStore,
	agg *usecase.SignalAggregator,
	pipeline *usecase.ConfirmationPipeline,
	results domrepo.ResultStore,
) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{
		logger:   logger,
		store:    store,
		agg:      agg,
		pipeline: pipeline,
		results:  results,
		rl:       ratelimit.New(),
	}
}

// SetCache wires optional response caching.
func (h *AnalysisHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis", h.Analyze)
	g.GET("/report", h.Report)
	g.GET("/confirmation", h.Confirmation)
}

func (h *AnalysisHandler) Analyze(c echo.Context) error {
	start := time.Now()
	endpoint := "analysis"
	defer func() { metrics.HandlerLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analysis", 5, 2) {
		return c.String(http.StatusTooManyRequests, "rate limited")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := "analysis:" + req.Symbol + ":" + string(tf)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	ctx := c.Request().Context()
	candles, err := h.store.GetLatestNCandles(ctx, req.Symbol, req.N, tf)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("analysis candles error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	trades, err := h.store.GetRecentTrades(ctx, req.Symbol, req.Trades)
	if err != nil {
		h.logger.Warn("analysis trades unavailable", xlogger.Error(err))
		trades = nil
	}
	book, err := h.store.GetDepth(ctx, req.Symbol, req.Depth)
	if err != nil {
		h.logger.Warn("analysis depth unavailable", xlogger.Error(err))
		book = nil
	}
	market, err := h.store.GetTicker24h(ctx, req.Symbol)
	if err != nil {
		h.logger.Warn("analysis ticker unavailable", xlogger.Error(err))
		market = nil
	}

	res, err := h.agg.AnalyzeComprehensive(ctx, req.Symbol,
		map[domrepo.Timeframe][]models.CandleBar{tf: candles}, book, trades, market)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("analysis usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.storeCached(cacheKey, res, 15*time.Second)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Confirmation(c echo.Context) error {
	start := time.Now()
	endpoint := "confirmation"
	defer func() { metrics.HandlerLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ConfirmationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if r, ok, err := h.results.Get(ctx, req.Symbol); err != nil {
		h.logger.Warn("confirmation store error", xlogger.Error(err))
	} else if ok {
		return xhttp.SuccessResponse(c, r)
	}

	if !h.rl.Allow(c.RealIP()+":confirmation", 3, 1) {
		return c.String(http.StatusTooManyRequests, "rate limited")
	}
	r, err := h.pipeline.Confirm(ctx, req.Symbol)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("confirmation usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, r)
}

func (h *AnalysisHandler) Report(c echo.Context) error {
	start := time.Now()
	endpoint := "report"
	defer func() { metrics.HandlerLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	var det *models.DetectionResult
	if r, ok, err := h.results.Get(ctx, req.Symbol); err == nil && ok && r.Detection != nil {
		det = r.Detection
	} else {
		if !h.rl.Allow(c.RealIP()+":report", 3, 1) {
			return c.String(http.StatusTooManyRequests, "rate limited")
		}
		r, err := h.pipeline.Confirm(ctx, req.Symbol)
		if err != nil {
			metrics.HandlerErrors.WithLabelValues(endpoint).Inc()
			h.logger.Error("report usecase error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		det = r.Detection
	}
	return c.String(http.StatusOK, usecase.FormatReport(det))
}

func (h *AnalysisHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *AnalysisHandler) storeCached(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.Error(err))
	}
}
