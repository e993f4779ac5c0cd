package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config содержит настройки HTTP-клиента внешнего API.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

// Client реализует Source поверх retryablehttp.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
}

// NewClient создает клиента с повторами и общим таймаутом на вызов.
// Таймаут принадлежит клиенту: для вызывающего истекший вызов ничем
// не отличается от любого другого сбоя.
func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.MaxRetries
	if rc.RetryMax < 0 {
		rc.RetryMax = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc.HTTPClient.Timeout = timeout
	rc.HTTPClient.Transport = otelhttp.NewTransport(http.DefaultTransport)

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}
}

// Call выполняет один вызов операции op с плоским набором параметров.
func (c *Client) Call(ctx context.Context, op string, params map[string]string) (*Envelope, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	endpoint := c.baseURL + "/" + op
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s: unexpected status %d", op, resp.StatusCode)
	}

	return parseEnvelope(body), nil
}

func parseEnvelope(body []byte) *Envelope {
	env := &Envelope{
		Success: gjson.GetBytes(body, "status").String() == "success",
	}

	data := gjson.GetBytes(body, "data")
	switch {
	case data.IsArray():
		for _, item := range data.Array() {
			if row, ok := item.Value().(map[string]any); ok {
				env.Rows = append(env.Rows, Row(row))
			}
		}
	case data.IsObject():
		if row, ok := data.Value().(map[string]any); ok {
			env.Row = Row(row)
		}
	}
	return env
}
