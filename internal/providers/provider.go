package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dharmasatrya/trotair/internal/models"
)

// FlightSearcher is the contract the booking flow needs from a flight search
// service.
type FlightSearcher interface {
	Name() string
	Search(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, error)
}

var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ProviderError carries what an upstream said about a failed call. Detail is
// the upstream's human-readable message, if it sent one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": "
	if e.StatusCode > 0 {
		msg += fmt.Sprintf("status %d: ", e.StatusCode)
	}
	if e.Detail != "" {
		return msg + e.Detail
	}
	if e.Err != nil {
		return msg + e.Err.Error()
	}
	return msg + "request failed"
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

func (e *ProviderError) UpstreamMessage() string {
	return e.Detail
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  json.RawMessage `json:"error"`
	Errors []struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

// extractDetail understands the error envelopes of the services we talk to:
// {"errors":[{"message"}]}, {"error":{"message"}}, {"error":"..."},
// {"detail":"..."} and {"message":"..."}.
func extractDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, e := range eb.Errors {
		if e.Message != "" {
			return e.Message
		}
		if e.Title != "" {
			return e.Title
		}
	}
	if s := rawString(eb.Detail); s != "" {
		return s
	}
	if len(eb.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(eb.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		if s := rawString(eb.Error); s != "" {
			return s
		}
	}
	return eb.Message
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// httpDoer is the piece of *http.Client the providers use.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type apiCall struct {
	provider string
	method   string
	url      string
	headers  map[string]string
	body     any
}

// doJSON performs one request and decodes a 2xx body into out. Transport
// failures and non-2xx responses come back as *ProviderError.
func doJSON(ctx context.Context, client httpDoer, call apiCall, out any) error {
	var body io.Reader
	if call.body != nil {
		payload, err := json.Marshal(call.body)
		if err != nil {
			return NewProviderError(call.provider, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, call.url, body)
	if err != nil {
		return NewProviderError(call.provider, err)
	}
	req.Header.Set("Accept", "application/json")
	if call.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range call.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{
			Provider: call.provider,
			Err:      fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		pe := &ProviderError{
			Provider:   call.provider,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(raw),
		}
		if resp.StatusCode >= 500 {
			pe.Err = ErrUpstreamUnavailable
		}
		return pe
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(call.provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
