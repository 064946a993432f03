package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"geo-elevate/internal/domain"
)

// APIError is a non-2xx answer from the score service. It unwraps to the
// domain category sentinel for its status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusBadRequest,
		e.StatusCode == http.StatusNotFound,
		e.StatusCode == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrServer
	}
	return nil
}

// Client talks to the auth and score service.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Token returns the bearer token for the request, or "".
	Token func() string
	// OnUnauthorized runs when a non-auth request is rejected with 401.
	OnUnauthorized func()
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type migrateRequest struct {
	Scores []domain.LocalScore `json:"scores"`
}

type migrateResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp domain.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp, nil
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (domain.AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp domain.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", "", body, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp, nil
}

// CurrentUser validates token against the service. The token is passed
// explicitly because the session has not adopted it yet during hydration.
func (c *Client) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) SubmitScore(ctx context.Context, submission domain.ScoreSubmission) (domain.StoredScore, error) {
	var stored domain.StoredScore
	if err := c.doJSON(ctx, http.MethodPost, "/api/scores", c.token(), submission, &stored); err != nil {
		return domain.StoredScore{}, err
	}
	return stored, nil
}

func (c *Client) MyScores(ctx context.Context, mode domain.Mode) ([]domain.StoredScore, error) {
	path := "/api/scores/me"
	if mode != "" {
		query := url.Values{}
		query.Set("game_mode", string(mode))
		path += "?" + query.Encode()
	}
	var scores []domain.StoredScore
	if err := c.doJSON(ctx, http.MethodGet, path, c.token(), nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Client) Leaderboard(ctx context.Context, mode domain.Mode, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	path := "/api/scores/leaderboard/" + url.PathEscape(string(mode)) + "?" + query.Encode()

	var entries []domain.LeaderboardEntry
	if err := c.doJSON(ctx, http.MethodGet, path, c.token(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MigrateScores uploads local scores and returns how many the service kept.
func (c *Client) MigrateScores(ctx context.Context, scores []domain.LocalScore) (int, error) {
	var resp migrateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/scores/migrate", c.token(), migrateRequest{Scores: scores}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) UserStats(ctx context.Context, username string) (domain.UserStats, error) {
	var stats domain.UserStats
	path := "/api/users/" + url.PathEscape(username) + "/stats"
	if err := c.doJSON(ctx, http.MethodGet, path, c.token(), nil, &stats); err != nil {
		return domain.UserStats{}, err
	}
	return stats, nil
}

func (c *Client) token() string {
	if c.Token == nil {
		return ""
	}
	return c.Token()
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, requestBody any, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode, Message: decodeDetail(response.Body)}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		if response.StatusCode == http.StatusUnauthorized && !isAuthPath(path) && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/api/auth/login") || strings.HasPrefix(path, "/api/auth/signup")
}

// decodeDetail reads a {"detail": ...} body. The detail is either a string
// or a list of field errors carrying "msg".
func decodeDetail(r io.Reader) string {
	var payload errorResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
