package hookutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Action is what a webhook tells the pipeline to do with the call.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionDeny   Action = "deny"
	ActionMutate Action = "mutate"
)

// WebhookConfig configures a webhook interceptor.
type WebhookConfig struct {
	Name    string
	URL     string
	Timeout time.Duration
	OnError Action // "allow" or "deny" when all attempts fail (default: deny)
	Retries int
	Headers map[string]string
	Client  *http.Client // optional; overrides Timeout when set
}

// Webhook posts a snapshot of the call to an external endpoint and applies
// the returned action: allow passes the call through, deny fails it, mutate
// replaces Data and/or Result. When every attempt fails the OnError action
// decides between failing open and failing closed.
type Webhook struct {
	name    string
	url     string
	onError Action
	retries int
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a webhook interceptor.
func NewWebhook(cfg WebhookConfig) *Webhook {
	onError := cfg.OnError
	if onError == "" {
		onError = ActionDeny
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Webhook{
		name:    cfg.Name,
		url:     cfg.URL,
		onError: onError,
		retries: cfg.Retries,
		headers: cfg.Headers,
		client:  client,
	}
}

type webhookPayload struct {
	Path      string         `json:"path"`
	Method    string         `json:"method"`
	Transport string         `json:"transport,omitempty"`
	ID        string         `json:"id,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Data      any            `json:"data,omitempty"`
	Result    any            `json:"result,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

type webhookReply struct {
	Action     Action `json:"action"`
	Data       any    `json:"data,omitempty"`
	Result     any    `json:"result,omitempty"`
	DenyReason string `json:"deny_reason,omitempty"`
}

// Intercept executes the webhook call.
func (w *Webhook) Intercept(ctx context.Context, c *hook.Context) (*hook.Context, error) {
	var lastErr error

	attempts := w.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		reply, err := w.doRequest(ctx, c)
		if err == nil {
			return w.apply(reply, c)
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	// All attempts failed - apply the OnError behavior
	if w.onError == ActionAllow {
		return nil, nil
	}
	return nil, &DeniedError{
		Name:   w.name,
		Reason: fmt.Sprintf("webhook error: %v", lastErr),
	}
}

func (w *Webhook) doRequest(ctx context.Context, c *hook.Context) (*webhookReply, error) {
	body, err := json.Marshal(webhookPayload{
		Path:      c.Path,
		Method:    c.Method,
		Transport: c.Transport,
		ID:        c.ID,
		Stage:     c.Stage,
		Data:      c.Data,
		Result:    c.Result,
		Meta:      c.Meta,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var reply webhookReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("unmarshal webhook reply: %w", err)
	}

	switch reply.Action {
	case ActionAllow, ActionDeny, ActionMutate:
	case "":
		reply.Action = ActionAllow
	default:
		return nil, fmt.Errorf("invalid action from webhook: %s", reply.Action)
	}

	return &reply, nil
}

func (w *Webhook) apply(reply *webhookReply, c *hook.Context) (*hook.Context, error) {
	switch reply.Action {
	case ActionDeny:
		reason := reply.DenyReason
		if reason == "" {
			reason = "denied"
		}
		return nil, &DeniedError{Name: w.name, Reason: reason}
	case ActionMutate:
		if reply.Data != nil {
			c.Data = reply.Data
		}
		if reply.Result != nil {
			c.Result = reply.Result
		}
	}
	return nil, nil
}

// Ensure Webhook implements the interface.
var _ hook.Interceptor = (*Webhook)(nil)
