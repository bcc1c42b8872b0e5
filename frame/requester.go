// Package frame is the content-frame side of the label protocol: a typed
// client over a Requester, a frame-local label cache and a throttled refresh
// pass that reports which labels are still on screen.
package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pkt.systems/hintx/core"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// Requester sends one request message to the background owner and returns
// the raw JSON result.
type Requester interface {
	Request(ctx context.Context, msg schema.Message) (json.RawMessage, error)
}

// Local dispatches requests to an in-process core service.
type Local struct {
	svc    core.Service
	sender schema.Sender
}

// NewLocal binds a service to a sender.
func NewLocal(svc core.Service, sender schema.Sender) *Local {
	return &Local{svc: svc, sender: sender}
}

// Request implements Requester.
func (l *Local) Request(ctx context.Context, msg schema.Message) (json.RawMessage, error) {
	result, err := l.svc.Dispatch(ctx, l.sender, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// HTTPRequester posts requests to the hintx HTTP API.
type HTTPRequester struct {
	endpoint string
	sender   schema.Sender
	client   *http.Client
	instance string
}

// NewHTTPRequester builds a requester against baseURL (for example
// "http://127.0.0.1:7420"). A nil client uses http.DefaultClient.
func NewHTTPRequester(baseURL string, sender schema.Sender, client *http.Client) *HTTPRequester {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRequester{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/request",
		sender:   sender,
		client:   client,
		instance: uuid.NewString(),
	}
}

// Instance returns the id this requester reports in every request.
func (r *HTTPRequester) Instance() string {
	return r.instance
}

// Request implements Requester.
func (r *HTTPRequester) Request(ctx context.Context, msg schema.Message) (json.RawMessage, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(schema.HeaderTab, strconv.Itoa(int(r.sender.TabID)))
	req.Header.Set(schema.HeaderFrame, strconv.Itoa(int(r.sender.FrameID)))
	req.Header.Set(schema.HeaderClient, r.instance)
	resp, err := r.client.Do(req)
	if err != nil {
		pslog.Ctx(ctx).Debug("frame request failed", "action", msg.Action.Type, "err", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode >= 300 || envelope.Error != "" {
		return nil, statusError(resp.StatusCode, envelope.Error)
	}
	return envelope.Result, nil
}

func statusError(status int, message string) error {
	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = schema.ErrInvalidRequest
	case http.StatusNotFound:
		sentinel = schema.ErrUnknownAction
	case http.StatusServiceUnavailable:
		sentinel = schema.ErrActionUnavailable
	default:
		if message == "" {
			message = http.StatusText(status)
		}
		return errors.New(message)
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}
