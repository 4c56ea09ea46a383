package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrUnauthorized = errors.New("not authorized")
)

// APIError is any other non-2xx answer.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("api %d: %s", e.Code, e.Message) }

// Client talks to the order API with a bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) GetOrder(ctx context.Context, id int64) (Order, error) {
	b, err := c.get(ctx, "/orders/"+strconv.FormatInt(id, 10))
	if err != nil {
		return Order{}, err
	}
	return DecodeOrder(b)
}

func (c *Client) History(ctx context.Context) ([]Order, error) {
	b, err := c.get(ctx, "/orders/history")
	if err != nil {
		return nil, err
	}
	return DecodeOrders(b)
}

func (c *Client) AllOrders(ctx context.Context) ([]Order, error) {
	b, err := c.get(ctx, "/orders")
	if err != nil {
		return nil, err
	}
	return DecodeOrders(b)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorText(body))
	case resp.StatusCode/100 != 2:
		return nil, &APIError{Code: resp.StatusCode, Message: errorText(body)}
	}
	return body, nil
}

func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
