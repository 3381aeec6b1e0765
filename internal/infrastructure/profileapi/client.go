package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

const maxErrorBody = 4 << 10

var _ ports.ProfileClient = (*Client)(nil)

// Client calls the profile/authentication service over HTTP.
//
// An explicit 401 on the profile endpoint maps to domain.ErrAuthInvalid.
// Every other failure (transport error, non-2xx status, undecodable body)
// maps to domain.ErrTransient.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile json.RawMessage `json:"profile"`
}

type submitRequest struct {
	Documents []string `json:"documents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) Login(ctx context.Context, role domain.Role, email, password string) (*ports.LoginResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login/"+role.String(), "", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	case resp.StatusCode != http.StatusOK:
		return nil, statusError("login", resp)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("login: decode response: %v: %w", err, domain.ErrTransient)
	}
	if body.Token == "" {
		return nil, fmt.Errorf("login: empty token: %w", domain.ErrTransient)
	}
	return &ports.LoginResult{Token: body.Token, Profile: body.Profile}, nil
}

func (c *Client) FetchProfile(ctx context.Context, role domain.Role, token string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/profile/"+role.String(), token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("fetch %s profile: %w", role, domain.ErrAuthInvalid)
	case resp.StatusCode != http.StatusOK:
		return nil, statusError("fetch "+role.String()+" profile", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %v: %w", role, err, domain.ErrTransient)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("fetch %s profile: invalid json: %w", role, domain.ErrTransient)
	}
	return json.RawMessage(raw), nil
}

func (c *Client) SubmitVerification(ctx context.Context, token string, documents []string) error {
	resp, err := c.do(ctx, http.MethodPost, "/verification/submit", token, submitRequest{Documents: documents})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("submit verification: %w", domain.ErrAuthInvalid)
	case http.StatusConflict:
		return fmt.Errorf("submit verification: %s: %w", readError(resp), domain.ErrInvalidTransition)
	}
	return statusError("submit verification", resp)
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrTransient)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	return fmt.Errorf("%s: status %d: %s: %w", op, resp.StatusCode, readError(resp), domain.ErrTransient)
}

func readError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
