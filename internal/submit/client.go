package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"recruit-intake/internal/form"
)

const maxResponseBytes = 1 << 20

// Endpoint is the webhook as configured at the time of a call.
type Endpoint struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client posts payloads to the automation webhook.
type Client struct {
	HTTP    *http.Client
	Limiter *HostLimiter
	// Resolve is called once per Send so config reloads apply to the next attempt.
	Resolve func() Endpoint
}

// Send issues exactly one POST and classifies the result. It never retries.
func (c *Client) Send(ctx context.Context, p *form.Payload) Outcome {
	ep := c.Resolve()
	if strings.TrimSpace(ep.URL) == "" {
		return TransportError{Detail: msgUnreachable, Unreachable: true, cause: errors.New("webhook url is not configured")}
	}

	body, err := p.MarshalJSON()
	if err != nil {
		return TransportError{Detail: "encode payload: " + err.Error(), cause: err}
	}

	if ep.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ep.Timeout)
		defer cancel()
	}

	if err := c.Limiter.WaitURL(ctx, ep.URL); err != nil {
		return classify(err, ep)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return TransportError{Detail: msgUnreachable, Unreachable: true, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "recruit-intake/1.0")
	if ep.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return classify(err, ep)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return classify(err, ep)
	}
	return parseResponse(res.StatusCode, b)
}

// parseResponse maps {success, request_id, message}. Only a JSON true counts
// as success; a missing flag, "true" or 1 is a rejection.
func parseResponse(status int, b []byte) Outcome {
	if !gjson.ValidBytes(b) || !gjson.ParseBytes(b).IsObject() {
		return TransportError{Detail: fmt.Sprintf("endpoint returned a non-JSON response (HTTP %d)", status)}
	}
	r := gjson.ParseBytes(b)
	if r.Get("success").Type == gjson.True {
		return Success{RequestID: r.Get("request_id").String()}
	}
	msg := strings.TrimSpace(r.Get("message").String())
	if msg == "" {
		msg = msgRemoteFallback
	}
	return Failure{Message: msg}
}

func classify(err error, ep Endpoint) TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportError{Detail: fmt.Sprintf("the webhook did not answer within %s", ep.Timeout), cause: err}
	}
	if unreachable(err) {
		return TransportError{Detail: msgUnreachable, Unreachable: true, cause: err}
	}
	return TransportError{Detail: err.Error(), cause: err}
}

func unreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "unsupported protocol scheme") {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
