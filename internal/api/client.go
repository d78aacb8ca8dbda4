package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// Session is the credential handle a request is issued under. The client
// reads the token pair from it and writes back through it when the refresh
// protocol replaces the access token or invalidates the pair. Passing nil
// issues the request unauthenticated.
type Session interface {
	AccessToken() string
	RefreshToken() string
	StoreAccessToken(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

const refreshPath = "/token/refresh/"

// Client is a typed client for the learning API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API rooted at baseURL (e.g. "https://host/api").
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// do issues one API call under the given session and decodes the JSON
// response into out (out may be nil for ack-only endpoints).
//
// It implements the refresh-once protocol: on an unauthorized response, if
// the session holds a refresh token and the request is not the refresh call
// itself, the refresh token is exchanged for a new access token, the new
// token is stored, and the original request is re-issued exactly once. A
// failed exchange clears both tokens and surfaces the original error. The
// single-retry bound prevents a loop when the refresh token is itself
// invalid.
func (c *Client) do(ctx context.Context, sess Session, method, path string, body, out any) error {
	resp, err := c.send(ctx, sess, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && sess != nil && sess.RefreshToken() != "" && path != refreshPath {
		origErr := decodeError(resp)

		access, refreshErr := c.RefreshAccess(ctx, sess.RefreshToken())
		if refreshErr != nil {
			if clearErr := sess.Clear(ctx); clearErr != nil {
				return fmt.Errorf("clear session after failed refresh: %w", clearErr)
			}
			return origErr
		}
		if err := sess.StoreAccessToken(ctx, access); err != nil {
			return fmt.Errorf("store refreshed access token: %w", err)
		}

		resp, err = c.send(ctx, sess, method, path, body)
		if err != nil {
			return err
		}
	}

	return decodeResponse(resp, out)
}

// send performs a single request attempt. The body is marshalled fresh on
// every attempt so a retried request carries an identical payload.
func (c *Client) send(ctx context.Context, sess Session, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sess != nil {
		if access := sess.AccessToken(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeErrorBody(resp.StatusCode, resp.Body)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError consumes and closes the response body and maps it onto the
// domain error taxonomy without touching out-parameters.
func decodeError(resp *http.Response) error {
	defer resp.Body.Close()
	return decodeErrorBody(resp.StatusCode, resp.Body)
}

func decodeErrorBody(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, errorDetail(raw))
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, errorDetail(raw))
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if ve := parseValidationError(raw); ve != nil {
			return ve
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, errorDetail(raw))
	default:
		return fmt.Errorf("api responded %d: %s", status, errorDetail(raw))
	}
}

// parseValidationError interprets the framework-style rejection body,
// where each offending field maps to a message or a list of messages.
func parseValidationError(raw []byte) *domain.ValidationError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil
	}

	ve := &domain.ValidationError{Fields: make(map[string][]string)}
	for field, msg := range fields {
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			ve.Fields[field] = list
			continue
		}
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			ve.Fields[field] = []string{single}
			continue
		}
		return nil
	}
	return ve
}

func errorDetail(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	if len(raw) == 0 {
		return "no response body"
	}
	return string(raw)
}

// IsAuthError reports whether err indicates missing or rejected credentials.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
