package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery/core"
)

const KindWebhook = "webhook"

const defaultWebhookClientTimeout = 30 * time.Second
const defaultWebhookResponseBodyLimit int64 = 1 << 20 // 1 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EndpointResolver returns the destination URL for a record. Deployments
// typically look the endpoint up from the subscription that produced
// the record.
type EndpointResolver func(record core.DeliveryRecord) (string, error)

// WebhookAdapter delivers record payloads over HTTP POST and classifies
// the response status so retryable upstream conditions stay retryable.
type WebhookAdapter struct {
	Client               HTTPDoer
	Endpoint             string
	ResolveEndpoint      EndpointResolver
	DefaultHeaders       map[string]string
	Signer               *WebhookSigner
	MaxResponseBodyBytes int64
}

func NewWebhookAdapter(client HTTPDoer, endpoint string) *WebhookAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookClientTimeout}
	}
	return &WebhookAdapter{
		Client:               client,
		Endpoint:             strings.TrimSpace(endpoint),
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultWebhookResponseBodyLimit,
	}
}

func (*WebhookAdapter) Kind() string {
	return KindWebhook
}

func (a *WebhookAdapter) Attempt(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error) {
	if a == nil || a.Client == nil {
		return core.Outcome{}, transportError(
			"transport: webhook adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindWebhook},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := a.endpointFor(record)
	if err != nil {
		// no destination to retry against, fail the record for good
		return core.PermanentFailure(err.Error()), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(record.Payload))
	if err != nil {
		return core.Outcome{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create webhook request",
			http.StatusBadRequest,
			map[string]any{"adapter": KindWebhook, "url": endpoint},
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Delivery-ID", record.ID)
	httpReq.Header.Set("X-Delivery-Kind", record.Kind)
	httpReq.Header.Set("X-Delivery-Attempt", strconv.Itoa(record.Attempts+1))
	for key, value := range a.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if a.Signer != nil {
		for key, value := range a.Signer.Headers(record.Payload) {
			httpReq.Header.Set(key, value)
		}
	}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		// connection refused, DNS failure, timeout: the endpoint may
		// recover, so keep retrying
		return core.TransientFailure(fmt.Sprintf("webhook request failed: %v", err)), nil
	}
	defer httpRes.Body.Close()

	limit := a.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultWebhookResponseBodyLimit
	}
	body, _ := io.ReadAll(io.LimitReader(httpRes.Body, limit))

	return classifyWebhookStatus(httpRes.StatusCode, body), nil
}

func (a *WebhookAdapter) endpointFor(record core.DeliveryRecord) (string, error) {
	endpoint := a.Endpoint
	if a.ResolveEndpoint != nil {
		resolved, err := a.ResolveEndpoint(record)
		if err != nil {
			return "", fmt.Errorf("transport: resolve webhook endpoint: %w", err)
		}
		endpoint = resolved
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("transport: webhook endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("transport: invalid webhook endpoint %q", endpoint)
	}
	return parsed.String(), nil
}

// classifyWebhookStatus maps HTTP status codes onto delivery outcomes.
// 2xx acknowledges the delivery. 408, 425, 429 and every 5xx are
// retryable upstream conditions. Any other 4xx means the request itself
// is the problem and retrying cannot fix it.
func classifyWebhookStatus(status int, body []byte) core.Outcome {
	switch {
	case status >= 200 && status < 300:
		return core.SentOutcome()
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= 500:
		return core.TransientFailure(webhookFailureMessage(status, body))
	default:
		return core.PermanentFailure(webhookFailureMessage(status, body))
	}
}

func webhookFailureMessage(status int, body []byte) string {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return fmt.Sprintf("webhook endpoint returned status %d", status)
	}
	return fmt.Sprintf("webhook endpoint returned status %d: %s", status, snippet)
}
