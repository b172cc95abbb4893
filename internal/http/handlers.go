package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/forecast"
	"budgetcast/internal/log"
	"budgetcast/internal/middleware/trace"
	"budgetcast/internal/report"
	"budgetcast/internal/services"
)

const (
	defaultRunsLimit      = 20
	maxRunsLimit          = 100
	maxHorizonsPerRequest = 8
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type forecastResponse struct {
	Forecasts []report.Forecast `json:"forecasts"`
}

type runJSON struct {
	RunID           string    `json:"run_id"`
	Start           string    `json:"start"`
	HorizonDays     int       `json:"horizon_days"`
	FinalTotalCents int64     `json:"final_total_cents"`
	MinTotalCents   int64     `json:"min_total_cents"`
	Warnings        int       `json:"warnings"`
	CreatedAt       time.Time `json:"created_at"`
}

// forecastQuery is the parsed form of GET /forecast.
type forecastQuery struct {
	Start    core.Date
	Horizons []int
}

// parseForecastQuery reads ?start=YYYY-MM-DD and one or more ?days=N.
// Without days the default horizon is used; without start, today.
func parseForecastQuery(r *http.Request, defaultHorizon int) (forecastQuery, error) {
	q := r.URL.Query()
	var out forecastQuery

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		t, err := time.Parse(core.DateLayout, v)
		if err != nil {
			return out, fmt.Errorf("invalid start %q: use YYYY-MM-DD", v)
		}
		out.Start = core.DateOf(t)
	}

	for _, raw := range q["days"] {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return out, fmt.Errorf("invalid days %q: must be a whole number", part)
			}
			out.Horizons = append(out.Horizons, n)
		}
	}
	if len(out.Horizons) == 0 {
		out.Horizons = []int{defaultHorizon}
	}
	if len(out.Horizons) > maxHorizonsPerRequest {
		return out, fmt.Errorf("at most %d horizons per request", maxHorizonsPerRequest)
	}
	return out, nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query, err := parseForecastQuery(r, s.defaultHorizon)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.service.Forecast(ctx, services.Request{Start: query.Start, Horizons: query.Horizons})
	if err != nil {
		status := forecastErrorStatus(err)
		logger := log.FromContext(ctx)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Forecast failed", log.FieldError, err)
		} else {
			logger.WarnContext(ctx, "Forecast rejected", log.FieldError, err)
		}
		writeError(w, r, status, err.Error())
		return
	}

	resp := forecastResponse{Forecasts: make([]report.Forecast, len(results))}
	for i, res := range results {
		resp.Forecasts[i] = report.FromResult(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// forecastErrorStatus maps forecast errors to HTTP statuses: bad parameters
// are the client's fault, bad records are unprocessable and the rest is ours.
func forecastErrorStatus(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon), errors.Is(err, services.ErrHorizonTooLarge):
		return http.StatusBadRequest
	case errors.As(err, &verr), errors.Is(err, core.ErrUnknownAccount), errors.Is(err, core.ErrDuplicateAccount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, forecast.ErrHalted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, r, http.StatusNotFound, "run archive is not configured")
		return
	}

	limit := defaultRunsLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunsLimit {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxRunsLimit))
			return
		}
		limit = n
	}

	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list runs", log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "failed to list runs")
		return
	}

	out := make([]runJSON, len(runs))
	for i, run := range runs {
		out[i] = runJSON{
			RunID:           run.RunID,
			Start:           run.Start.String(),
			HorizonDays:     run.Horizon,
			FinalTotalCents: run.FinalTotal.Cents,
			MinTotalCents:   run.MinTotal.Cents,
			Warnings:        run.Warnings,
			CreatedAt:       run.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string][]runJSON{"runs": out})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.records != nil {
		s.records.Invalidate()
		log.FromContext(r.Context()).InfoContext(r.Context(), "Record cache invalidated")
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: trace.FromRequest(r)})
}
