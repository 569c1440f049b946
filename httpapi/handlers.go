// Package httpapi exposes the operational HTTP surface of the delivery
// pipeline: enqueueing, record inspection, and the health report.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/health"
)

// DeliveryService is the slice of the delivery service the HTTP surface
// drives.
type DeliveryService interface {
	Enqueue(ctx context.Context, req core.EnqueueRequest) (core.DeliveryRecord, error)
	GetDelivery(ctx context.Context, id string) (core.DeliveryRecord, error)
	ListDeliveries(ctx context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error)
}

// HealthReader produces the pipeline health report.
type HealthReader interface {
	Report(ctx context.Context) (health.Report, error)
}

type API struct {
	service DeliveryService
	health  HealthReader
	logger  core.Logger
	now     func() time.Time
}

type Option func(*API)

func WithLogger(logger core.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

func New(service DeliveryService, healthReader HealthReader, opts ...Option) (*API, error) {
	if service == nil {
		return nil, fmt.Errorf("httpapi: delivery service is required")
	}
	api := &API{
		service: service,
		health:  healthReader,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api, nil
}

// appHandler lets handlers return errors; makeHandler turns them into
// the JSON error envelope.
type appHandler func(w http.ResponseWriter, r *http.Request) error

func (a *API) makeHandler(handler appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		if a.logger != nil {
			a.logger.Warn("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
		}
		respondError(w, err)
	}
}

type enqueueRequestBody struct {
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	MaxAttempts int             `json:"max_attempts"`
}

func (a *API) handleEnqueue(w http.ResponseWriter, r *http.Request) error {
	var body enqueueRequestBody
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		return badRequest("invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	record, err := a.service.Enqueue(r.Context(), core.EnqueueRequest{
		Kind:        body.Kind,
		Payload:     []byte(body.Payload),
		MaxAttempts: body.MaxAttempts,
	})
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, recordToView(record, a.now()))
	return nil
}

func (a *API) handleGetDelivery(w http.ResponseWriter, r *http.Request) error {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return badRequest("delivery id is required")
	}
	record, err := a.service.GetDelivery(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, recordToView(record, a.now()))
	return nil
}

func (a *API) handleListDeliveries(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseListFilter(r)
	if err != nil {
		return err
	}
	page, err := a.service.ListDeliveries(r.Context(), filter)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, pageToView(page, a.now()))
	return nil
}

func (a *API) handleHealthReport(w http.ResponseWriter, r *http.Request) error {
	if a.health == nil {
		return goerrors.New("httpapi: health monitor is not configured", goerrors.CategoryInternal).
			WithCode(http.StatusServiceUnavailable).
			WithTextCode(core.DeliveryErrorInternal)
	}
	report, err := a.health.Report(r.Context())
	if err != nil {
		return err
	}
	status := http.StatusOK
	if report.Status == health.ConditionCritical {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, report)
	return nil
}

func parseListFilter(r *http.Request) (core.DeliveryFilter, error) {
	query := r.URL.Query()
	filter := core.DeliveryFilter{}

	for _, raw := range splitCSV(query.Get("status")) {
		status := core.Status(strings.ToLower(raw))
		if !status.Valid() {
			return core.DeliveryFilter{}, badRequest("unknown status filter: " + raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Kinds = splitCSV(query.Get("kind"))

	var err error
	if filter.Page, err = parseIntParam(query.Get("page"), "page"); err != nil {
		return core.DeliveryFilter{}, err
	}
	if filter.PerPage, err = parseIntParam(query.Get("per_page"), "per_page"); err != nil {
		return core.DeliveryFilter{}, err
	}
	if filter.CreatedAfter, err = parseTimeParam(query.Get("created_after"), "created_after"); err != nil {
		return core.DeliveryFilter{}, err
	}
	if filter.CreatedBefore, err = parseTimeParam(query.Get("created_before"), "created_before"); err != nil {
		return core.DeliveryFilter{}, err
	}
	return filter, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, badRequest(name + " must be a non-negative integer")
	}
	return value, nil
}

func parseTimeParam(raw, name string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, badRequest(name + " must be RFC3339")
	}
	return &value, nil
}

func badRequest(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.DeliveryErrorBadInput)
}
