package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery/core"
)

const (
	headerContentType   = "Content-Type"
	contentTypeJSONUTF8 = "application/json; charset=utf-8"
)

type errorBody struct {
	Error    string `json:"error"`
	TextCode string `json:"text_code,omitempty"`
}

// recordView is the wire shape of a delivery record. The payload stays
// opaque and is emitted base64-encoded.
type recordView struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	Payload        []byte     `json:"payload,omitempty"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	MaxAttempts    int        `json:"max_attempts"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty"`
	RetryInSeconds *int64     `json:"retry_in_seconds,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	TerminalAt     *time.Time `json:"terminal_at,omitempty"`
}

type pageView struct {
	Items   []recordView `json:"items"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

func recordToView(record core.DeliveryRecord, now time.Time) recordView {
	view := recordView{
		ID:             record.ID,
		Kind:           record.Kind,
		Payload:        record.Payload,
		Status:         string(record.Status),
		Attempts:       record.Attempts,
		MaxAttempts:    record.MaxAttempts,
		LastAttemptAt:  record.LastAttemptAt,
		NextEligibleAt: record.NextEligibleAt,
		ErrorMessage:   record.ErrorMessage,
		CreatedAt:      record.CreatedAt,
		TerminalAt:     record.TerminalAt,
	}
	if record.Status == core.StatusPending && record.NextEligibleAt != nil {
		if wait := record.NextEligibleAt.Sub(now); wait > 0 {
			seconds := int64(wait / time.Second)
			view.RetryInSeconds = &seconds
		}
	}
	return view
}

func pageToView(page core.DeliveryPage, now time.Time) pageView {
	view := pageView{
		Items:   make([]recordView, 0, len(page.Items)),
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	for _, record := range page.Items {
		view.Items = append(view.Items, recordToView(record, now))
	}
	return view
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set(headerContentType, contentTypeJSONUTF8)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set(headerContentType, contentTypeJSONUTF8)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, err error) {
	var richErr *goerrors.Error
	if errors.As(err, &richErr) {
		status := richErr.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, errorBody{Error: richErr.Message, TextCode: richErr.TextCode})
		return
	}
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
