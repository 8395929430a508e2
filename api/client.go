// Package api exposes the dashboard endpoints as typed calls on top of the
// resilient http client.
package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	qyhttp "github.com/qyquant/qyquant-client/http"
)

// ErrEmptyToken is returned when a login succeeds without an access token.
var ErrEmptyToken = errors.New("login returned an empty access token")

const uploadField = "file"

// Client groups the dashboard endpoints.
type Client struct {
	http *qyhttp.Client
}

// New wraps an http client.
func New(c *qyhttp.Client) *Client {
	return &Client{http: c}
}

// HTTP returns the underlying client, e.g. to reach its session.
func (c *Client) HTTP() *qyhttp.Client {
	return c.http
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := qyhttp.Post[loginResponse](ctx, c.http, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		domain := &qyhttp.DomainError{StatusCode: http.StatusOK, Message: ErrEmptyToken.Error()}
		return qyhttp.NormalizeIn(c.http.Session().Locale(), fmt.Errorf("%w: %w", domain, ErrEmptyToken))
	}
	c.http.Session().SetToken(resp.AccessToken)
	return nil
}

// Logout forgets the session token. The API keeps no server side session.
func (c *Client) Logout() {
	c.http.Session().ClearToken()
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	return qyhttp.Get[User](ctx, c.http, "/users/me", nil)
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	return qyhttp.Get[Health](ctx, c.http, "/health", nil)
}

func (c *Client) RecentStrategies(ctx context.Context) ([]Strategy, error) {
	return qyhttp.Get[[]Strategy](ctx, c.http, "/strategies/recent", nil)
}

func (c *Client) RecentBots(ctx context.Context) ([]Bot, error) {
	return qyhttp.Get[[]Bot](ctx, c.http, "/bots/recent", nil)
}

func (c *Client) CreateBot(ctx context.Context, bot NewBot) (Bot, error) {
	return qyhttp.Post[Bot](ctx, c.http, "/bots", bot)
}

// UpdateBotStatus moves a bot to status; the server treats "running" as active.
func (c *Client) UpdateBotStatus(ctx context.Context, id string, status BotStatus) (Bot, error) {
	return qyhttp.Patch[Bot](ctx, c.http, botPath(id, "status"), map[string]BotStatus{"status": status})
}

func (c *Client) BotPerformance(ctx context.Context, id string) (BotPerformance, error) {
	return qyhttp.Get[BotPerformance](ctx, c.http, botPath(id, "performance"), nil)
}

func botPath(id, action string) string {
	return fmt.Sprintf("/bots/%s/%s", url.PathEscape(id), action)
}

// LatestBacktest runs a synchronous backtest over the selected market data.
func (c *Client) LatestBacktest(ctx context.Context, q BacktestQuery) (Backtest, error) {
	return qyhttp.Get[Backtest](ctx, c.http, "/backtests/latest", q.query())
}

func (q BacktestQuery) query() qyhttp.Query {
	out := qyhttp.Query{}
	if q.Symbol != "" {
		out["symbol"] = q.Symbol
	}
	if q.Interval != "" {
		out["interval"] = q.Interval
	}
	if q.Limit > 0 {
		out["limit"] = q.Limit
	}
	if q.StartTime != "" {
		out["startTime"] = q.StartTime
	}
	if q.EndTime != "" {
		out["endTime"] = q.EndTime
	}
	return out
}

type runBacktestResponse struct {
	JobID string `json:"job_id"`
}

// RunBacktest queues a backtest and returns its job id.
func (c *Client) RunBacktest(ctx context.Context, q BacktestQuery) (string, error) {
	resp, err := qyhttp.Post[runBacktestResponse](ctx, c.http, "/backtests/run", q)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (c *Client) BacktestJob(ctx context.Context, jobID string) (BacktestJob, error) {
	return qyhttp.Get[BacktestJob](ctx, c.http, "/backtests/job/"+url.PathEscape(jobID), nil)
}

func (c *Client) HotPosts(ctx context.Context) ([]Post, error) {
	return qyhttp.Get[[]Post](ctx, c.http, "/forum/hot", nil)
}

func (c *Client) CreatePost(ctx context.Context, post NewPost) (Post, error) {
	return qyhttp.Post[Post](ctx, c.http, "/forum/posts", post)
}

// UploadFile sends content as a multipart file part. The content type is
// derived from the file extension.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (File, error) {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return qyhttp.Send[File](ctx, c.http, &qyhttp.Request{
		Method: qyhttp.MethodPost,
		Path:   "/files",
		Multipart: &qyhttp.Multipart{
			Files: []qyhttp.FormFile{{
				Field:       uploadField,
				Filename:    filename,
				ContentType: contentType,
				Content:     content,
			}},
		},
	})
}
