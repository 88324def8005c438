// Package api is the HTTP client for the /api/students surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// BasePath is where the record store is mounted.
const BasePath = "/api/students"

// Error is a non-2xx answer from the server. Message is the server's
// "error" (or "message") field when present, else the status text.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL (scheme://host[:port]).
// A nil httpClient gets a client with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) List(ctx context.Context) ([]types.Student, error) {
	var out []types.Student
	if err := c.do(ctx, http.MethodGet, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if out == nil {
		out = []types.Student{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (types.Student, error) {
	var out types.Student
	if err := c.do(ctx, http.MethodGet, id, nil, &out); err != nil {
		return types.Student{}, fmt.Errorf("get student %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, in types.StudentInput) (types.Student, error) {
	var out types.Student
	if err := c.do(ctx, http.MethodPost, "", in, &out); err != nil {
		return types.Student{}, fmt.Errorf("create student: %w", err)
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, in types.StudentInput) (types.Student, error) {
	var out types.Student
	if err := c.do(ctx, http.MethodPut, id, in, &out); err != nil {
		return types.Student{}, fmt.Errorf("update student %s: %w", id, err)
	}
	return out, nil
}

// Delete removes a record and returns the server's confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var out response.Message
	if err := c.do(ctx, http.MethodDelete, id, nil, &out); err != nil {
		return "", fmt.Errorf("delete student %s: %w", id, err)
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, id string, body, out any) error {
	target := c.baseURL + BasePath
	if id != "" {
		target += "/" + url.PathEscape(id)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		switch {
		case envelope.Error != "":
			apiErr.Message = envelope.Error
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
		return apiErr
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}
