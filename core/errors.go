package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DeliveryErrorBadInput          = "DELIVERY_BAD_INPUT"
	DeliveryErrorRecordNotFound    = "DELIVERY_RECORD_NOT_FOUND"
	DeliveryErrorKindNotRegistered = "DELIVERY_KIND_NOT_REGISTERED"
	DeliveryErrorAlreadyTerminal   = "DELIVERY_ALREADY_TERMINAL"
	DeliveryErrorStoreFailed       = "DELIVERY_STORE_FAILED"
	DeliveryErrorInternal          = "DELIVERY_INTERNAL_ERROR"
)

var (
	ErrRecordNotFound  = errors.New("core: delivery record not found")
	ErrRecordTerminal  = errors.New("core: delivery record is terminal")
	ErrStoreNotWired   = errors.New("core: delivery store is not configured")
	ErrAdapterNotFound = errors.New("core: no transport adapter registered for kind")
)

func deliveryErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureDeliveryErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return newDeliveryError(err.Error(), goerrors.CategoryNotFound, DeliveryErrorRecordNotFound)
	case errors.Is(err, ErrRecordTerminal):
		return newDeliveryError(err.Error(), goerrors.CategoryConflict, DeliveryErrorAlreadyTerminal)
	case errors.Is(err, ErrAdapterNotFound):
		return newDeliveryError(err.Error(), goerrors.CategoryOperation, DeliveryErrorKindNotRegistered)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newDeliveryError(err.Error(), goerrors.CategoryNotFound, DeliveryErrorRecordNotFound)
	case strings.Contains(msg, "adapter") && strings.Contains(msg, "not registered"):
		return newDeliveryError(err.Error(), goerrors.CategoryOperation, DeliveryErrorKindNotRegistered)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return newDeliveryError(err.Error(), goerrors.CategoryBadInput, DeliveryErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureDeliveryErrorEnvelope(mapped)
}

func newDeliveryError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureDeliveryErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureDeliveryErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = deliveryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultDeliveryTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultDeliveryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return DeliveryErrorBadInput
	case goerrors.CategoryNotFound:
		return DeliveryErrorRecordNotFound
	case goerrors.CategoryConflict:
		return DeliveryErrorAlreadyTerminal
	case goerrors.CategoryOperation:
		return DeliveryErrorKindNotRegistered
	case goerrors.CategoryExternal:
		return DeliveryErrorStoreFailed
	default:
		return DeliveryErrorInternal
	}
}

func deliveryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
