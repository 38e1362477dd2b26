package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/caloric/internal/domain/types"
)

const idempotencyHeader = "Idempotency-Key"

// ErrUnexpectedStatus is returned when the server answers with a status the
// client did not ask for.
var ErrUnexpectedStatus = errors.New("unexpected status")

// client talks to the caloric HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", http.StatusOK, nil)
}

func (c *client) createSession(ctx context.Context, count int) (types.Session, error) {
	var sess types.Session
	err := c.do(ctx, http.MethodPost, "/sessions", map[string]int{"count": count}, "", http.StatusCreated, &sess)
	return sess, err
}

func (c *client) addIngredient(ctx context.Context, id string, ingredient int, requestID string) (types.Transition, error) {
	var tr types.Transition
	body := map[string]int{"ingredient": ingredient}
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/ingredients", body, requestID, http.StatusOK, &tr)
	return tr, err
}

func (c *client) deleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, "", http.StatusNoContent, nil)
}

func (c *client) do(ctx context.Context, method, path string, body any, requestID string, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID != "" {
		req.Header.Set(idempotencyHeader, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
