// Package reviewclient is a JSON-over-HTTP client for the kyc-review API.
package reviewclient

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

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"kyc-review-api/internal/models"
	"kyc-review-api/internal/verification"
)

// Client talks to the REST API. It implements verification.TaskRepository and
// verification.DocumentStore.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	// Timeout bounds each request through its context. It is read on every call.
	Timeout time.Duration

	breaker *gobreaker.CircuitBreaker
}

// New creates a client with a 15s per-request timeout and a circuit breaker that opens
// after more than three consecutive failures.
func New(baseURL string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Timeout:    verification.DefaultTimeout,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kyc-review-api",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// 4xx answers are the caller's problem, not a sick server
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})
	return c
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
}

var _ verification.TaskRepository = (*Client)(nil)
var _ verification.DocumentStore = (*Client)(nil)

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "api/login", body, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "api/register", body, nil)
}

// Submission is the body of a KYC submission.
type Submission struct {
	FullName     string `json:"fullName"`
	Country      string `json:"country"`
	DocumentType string `json:"documentType"`
	DocumentID   string `json:"documentId"`
	FrontImage   string `json:"frontImage"`
	BackImage    string `json:"backImage,omitempty"`
	SelfieImage  string `json:"selfieImage"`
}

// SubmitKYC stores the caller's submission and returns the verification task opened for it.
func (c *Client) SubmitKYC(ctx context.Context, sub Submission) (models.Task, error) {
	var resp struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "api/kyc-submissions", sub, &resp)
	return resp.Task, err
}

// ListTasks returns the tasks assigned to the caller.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "api/tasks-for-reviewer", nil, &resp)
	return resp.Tasks, err
}

// UpdateTaskStatus patches a task's status and decision.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID uint, update models.TaskStatusUpdate) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("api/tasks/%d", taskID), update, &resp)
	return resp, err
}

// KYCRecord fetches the latest submission of userID.
func (c *Client) KYCRecord(ctx context.Context, userID uint) (verification.Record, error) {
	var resp verification.Record
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("api/kyc-record/%d", userID), nil, &resp)
	return resp, err
}

// WebSocketURL returns the realtime endpoint with the token as a query parameter.
func (c *Client) WebSocketURL() string {
	u := c.base() + "/api/ws?token=" + url.QueryEscape(c.Token)
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, endpoint, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body any, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// decodeError prefers the server's {"error": "..."} message over the raw body.
func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
