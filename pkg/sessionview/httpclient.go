package sessionview

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// APIError is an error envelope returned by the negotiation API.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client talks to a negotiation server over its REST and SSE endpoints.
// It satisfies Invoker, so a View can be driven remotely the same way the
// application service drives it in-process.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient wraps baseURL (e.g. "http://localhost:8080"). A nil httpClient
// uses http.DefaultClient; SSE streams need a client without a global
// timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// OpenSession creates the negotiation for contextKey or returns the one
// already active for it.
func (c *Client) OpenSession(ctx context.Context, contextKey string, calculationID uuid.UUID, roster []negotiation.RosterMember) (*negotiation.SessionState, error) {
	body := map[string]interface{}{
		"contextKey":    contextKey,
		"calculationId": calculationID,
		"roster":        roster,
	}
	var state negotiation.SessionState
	if err := c.do(ctx, http.MethodPost, "/v1/negotiations", body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetSession fetches the full authoritative state.
func (c *Client) GetSession(ctx context.Context, sessionID uuid.UUID) (*negotiation.SessionState, error) {
	var state negotiation.SessionState
	if err := c.do(ctx, http.MethodGet, "/v1/negotiations/"+sessionID.String(), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) ProposePercentage(ctx context.Context, sessionID uuid.UUID, userID string, value float64) (*negotiation.Participant, error) {
	body := map[string]interface{}{"userId": userID, "percentage": value}
	var p negotiation.Participant
	if err := c.do(ctx, http.MethodPost, "/v1/negotiations/"+sessionID.String()+"/percentage", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Confirm(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	return c.statusChange(ctx, sessionID, userID, "confirm")
}

func (c *Client) Revoke(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	return c.statusChange(ctx, sessionID, userID, "revoke")
}

func (c *Client) statusChange(ctx context.Context, sessionID uuid.UUID, userID, action string) (*negotiation.Participant, error) {
	body := map[string]interface{}{"userId": userID}
	var p negotiation.Participant
	if err := c.do(ctx, http.MethodPost, "/v1/negotiations/"+sessionID.String()+"/"+action, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CancelSession abandons the negotiation.
func (c *Client) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/v1/negotiations/"+sessionID.String()+"/cancel", nil, nil)
}

// Stream subscribes to the session's event feed and invokes onEvent for
// each frame until ctx is cancelled or the server closes the stream. Call
// it before fetching state so no event falls between subscribe and seed.
func (c *Client) Stream(ctx context.Context, sessionID uuid.UUID, userID string, onEvent func(*negotiation.Event)) error {
	endpoint := c.baseURL + "/v1/negotiations/" + sessionID.String() + "/stream?user_id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var event negotiation.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}
		onEvent(&event)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "HTTP_ERROR"
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
