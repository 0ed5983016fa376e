package api

import (
	"encoding/json"
	"fmt"
	"time"

	"ForceField/internal/codex"
	models "ForceField/internal/domain/models"
	"ForceField/internal/service/ratelimit"
	"ForceField/internal/snapshot"
	"ForceField/internal/usecase"
	pkgcache "ForceField/pkg/cache"
	xhttp "ForceField/pkg/http"
	xlogger "ForceField/pkg/logger"
	"ForceField/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForcesHandler exposes the detection engine over HTTP. Route names and
// payload layout follow the dashboard contract.
type ForcesHandler struct {
	logger *xlogger.Logger
	store  *snapshot.Store
	pass   *usecase.DetectionPassUseCase
	log    *codex.Log
	cache  pkgcache.Cache
	// cacheTag fingerprints the detector configuration; a config change
	// must not serve results computed under the old options.
	cacheTag string
	rl       *ratelimit.Limiter
}

func NewForcesHandler(logger *xlogger.Logger, store *snapshot.Store, pass *usecase.DetectionPassUseCase, log *codex.Log) *ForcesHandler {
	return &ForcesHandler{logger: logger, store: store, pass: pass, log: log, rl: ratelimit.New()}
}

// SetCache enables cache-aside on analysis responses. configTag keys
// cached entries to the detector options they were computed under.
func (h *ForcesHandler) SetCache(c pkgcache.Cache, configTag string) {
	h.cache = c
	h.cacheTag = configTag
}

func (h *ForcesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dados", h.Data)
	g.GET("/analise", h.Analyze)
	g.GET("/interpretacoes", h.Interpretations)
	g.GET("/estatisticas", h.Stats)
}

// Data returns the tail of a snapshot version's point series.
func (h *ForcesHandler) Data(c echo.Context) error {
	req := &models.DataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	version := req.Version
	if version == 0 {
		v, ok := h.store.Latest()
		if !ok {
			return xhttp.NotFoundResponse(c, "no snapshot published yet")
		}
		version = v
	}
	snap, err := h.store.Read(version)
	if err != nil {
		h.logger.Warn("data read error", xlogger.Uint64("version", version), xlogger.Error(err))
		return xhttp.NotFoundResponse(c, fmt.Sprintf("version %d not published", version))
	}

	points := snap.Points
	if len(points) > req.Limit {
		points = points[len(points)-req.Limit:]
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"version": snap.Version,
		"points":  points,
	})
}

// Analyze runs a detection pass over a snapshot version. Results for an
// already-analyzed version are served from cache: passes over the same
// immutable version are byte-identical anyway.
func (h *ForcesHandler) Analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analise", 5, 2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	version := req.Version
	if version == 0 {
		v, ok := h.store.Latest()
		if !ok {
			return xhttp.NotFoundResponse(c, "no snapshot published yet")
		}
		version = v
	}

	ctx := c.Request().Context()
	cacheKey := fmt.Sprintf("analise:%s:%d", h.cacheTag, version)
	if h.cache != nil {
		if b, ok, err := h.cache.Get(ctx, cacheKey); err != nil {
			h.logger.Warn("analysis cache get error", xlogger.Error(err))
		} else if ok {
			var res models.PassResult
			if err := json.Unmarshal(b, &res); err == nil {
				return xhttp.SuccessResponse(c, res)
			}
		}
	}

	res, err := h.pass.Run(ctx, version)
	if err != nil {
		h.logger.Error("detection pass error", xlogger.Uint64("version", version), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil && !res.Partial() {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.Set(ctx, cacheKey, b, 5*time.Minute); err != nil {
				h.logger.Warn("analysis cache set error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Interpretations lists codex entries, newest last, append order.
func (h *ForcesHandler) Interpretations(c echo.Context) error {
	req := &models.InterpretationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from := util.ParseTimeDefault(req.From, time.Time{})
	to := util.ParseTimeDefault(req.To, time.Time{})

	entries := h.log.List(req.IncludeExpired)
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		if req.Type != "" && string(e.Interpretation.Type) != req.Type {
			continue
		}
		if !from.IsZero() && e.Interpretation.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && e.Interpretation.Timestamp.After(to) {
			continue
		}
		out = append(out, echo.Map{
			"interpretacao": e.Interpretation,
			"estado":        e.State,
			"registrada_em": e.LoggedAt,
		})
	}
	if len(out) > req.Limit {
		out = out[len(out)-req.Limit:]
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// Stats reports codex vocabulary usage.
func (h *ForcesHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.log.Snapshot())
}
