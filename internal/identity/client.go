// Package identity is the client for the external identity service,
// which owns credentials, sessions and password resets. This service
// never stores any of those; it only holds profile rows correlated to
// identities by id and email.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"techlog/entity"
	"techlog/lib/sl"
)

type Client struct {
	hc         *http.Client
	baseURL    string
	serviceKey string
	log        *slog.Logger
}

type Config struct {
	BaseURL    string
	ServiceKey string
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		hc:         &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		log:        logger.With(sl.Module("identity")),
	}
}

// request sends an authenticated call to the identity service admin API.
// A 404 maps to entity.ErrNotFound so deletion retries can treat a
// missing identity as success of intent.
func (c *Client) request(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	log := c.log.With(
		slog.String("method", method),
		slog.String("path", path),
	)

	var err error
	status := "ERROR"
	t1 := time.Now()
	defer func() {
		t2 := time.Now()
		log.Debug("identity API request completed",
			slog.String("duration", fmt.Sprintf("%.3fms", float64(t2.Sub(t1))/float64(time.Millisecond))),
			slog.String("status", status))
	}()

	var body io.Reader
	if payload != nil {
		data, merr := json.Marshal(payload)
		if merr != nil {
			log.Error("marshal payload", sl.Err(merr))
			return nil, merr
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		log.Error("create request", sl.Err(err))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Error("request failed", sl.Err(err))
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	status = resp.Status
	if resp.StatusCode == http.StatusNotFound {
		return nil, entity.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		log.Error("identity API returned error",
			slog.String("status", resp.Status),
			slog.String("body", string(data)))
		return nil, fmt.Errorf("identity %s: %s", resp.Status, data)
	}

	return data, nil
}

// CreateShadowIdentity registers an identity ahead of user
// self-registration; the invitee later claims it by completing signup.
func (c *Client) CreateShadowIdentity(ctx context.Context, email string, meta map[string]string) (string, error) {
	payload := map[string]interface{}{
		"email":         email,
		"email_confirm": false,
		"user_metadata": meta,
	}
	data, err := c.request(ctx, http.MethodPost, "/admin/users", payload)
	if err != nil {
		return "", fmt.Errorf("create shadow identity: %w", err)
	}
	var res struct {
		ID string `json:"id"`
	}
	if err = json.Unmarshal(data, &res); err != nil {
		return "", fmt.Errorf("decode identity: %w", err)
	}
	if res.ID == "" {
		return "", fmt.Errorf("identity service returned no id")
	}
	return res.ID, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodDelete, "/admin/users/"+id, nil)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func (c *Client) GetSessionMetadata(ctx context.Context, id string) (*entity.SessionMeta, error) {
	data, err := c.request(ctx, http.MethodGet, "/admin/users/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("session metadata: %w", err)
	}
	var res struct {
		LastSignInAt time.Time `json:"last_sign_in_at"`
	}
	if err = json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode session metadata: %w", err)
	}
	return &entity.SessionMeta{LastSignInAt: res.LastSignInAt}, nil
}

func (c *Client) SendPasswordResetEmail(ctx context.Context, email, redirectTo string) error {
	payload := map[string]string{
		"email":       email,
		"redirect_to": redirectTo,
	}
	if _, err := c.request(ctx, http.MethodPost, "/recover", payload); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	return nil
}

// UserByToken resolves a session token to the identity it belongs to.
// The session token replaces the service key for this one call.
func (c *Client) UserByToken(ctx context.Context, token string) (*entity.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token lookup: %s", resp.Status)
	}

	var ident entity.Identity
	if err = json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("decode token lookup: %w", err)
	}
	if ident.ID == "" {
		return nil, fmt.Errorf("token lookup: empty identity")
	}
	return &ident, nil
}
