package mockapi

import (
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/qyquant/qyquant-client/api"
)

const (
	defaultSymbol   = "BTCUSDT"
	defaultLimit    = 120
	maxListSize     = 10
	maxUploadBytes  = 5 * 1024 * 1024
	tokenPrefix     = "mock-"
	jobStatusDone   = "SUCCESS"
	jobStatusQueued = "PENDING"
)

var (
	allowedUploadExt = []string{".py", ".zip", ".txt"}
	botStatuses      = []api.BotStatus{api.BotActive, api.BotPaused, api.BotError, api.BotOffline}
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createBotRequest struct {
	Name       string          `json:"name"`
	StrategyID string          `json:"strategy_id"`
	Capital    decimal.Decimal `json:"capital"`
	Tags       []string        `json:"tags"`
}

type botStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type runBacktestRequest struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	Limit     int    `json:"limit"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type createPostRequest struct {
	Title  string   `json:"title" validate:"required,max=200"`
	Author string   `json:"author"`
	Avatar string   `json:"avatar"`
	Tags   []string `json:"tags"`
}

func (s *Server) registerRoutes() {
	api := s.echo.Group(BasePath)

	api.GET("/health", s.health)
	api.POST("/auth/login", s.login)
	api.GET("/users/me", s.me, s.requireAuth)

	api.GET("/strategies/recent", s.recentStrategies)

	api.GET("/bots/recent", s.recentBots)
	api.POST("/bots", s.createBot)
	api.PATCH("/bots/:id/status", s.updateBotStatus)
	api.GET("/bots/:id/performance", s.botPerformance)

	api.GET("/backtests/latest", s.latestBacktest)
	api.POST("/backtests/run", s.runBacktest)
	api.GET("/backtests/job/:id", s.backtestJob)

	api.GET("/forum/hot", s.hotPosts)
	api.POST("/forum/posts", s.createPost)

	api.POST("/files", s.uploadFile, s.requireAuth)
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, found := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		s.mu.Lock()
		email, known := s.tokens[token]
		s.mu.Unlock()
		if !found || !known {
			return s.fail(c, http.StatusUnauthorized, "unauthorized")
		}
		c.Set("email", email)
		return next(c)
	}
}

func (s *Server) health(c echo.Context) error {
	return s.ok(c, map[string]string{"status": "ok"})
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if want, ok := s.users[req.Email]; !ok || want != req.Password {
		return s.fail(c, http.StatusUnauthorized, "unauthorized")
	}
	token := tokenPrefix + uuid.NewString()
	s.tokens[token] = req.Email
	return s.ok(c, map[string]string{"access_token": token})
}

func (s *Server) me(c echo.Context) error {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if email, ok := c.Get("email").(string); ok {
		user.Email = email
	}
	return s.ok(c, user)
}

func (s *Server) recentStrategies(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ok(c, head(s.strats))
}

func (s *Server) recentBots(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ok(c, head(s.bots))
}

func (s *Server) createBot(c echo.Context) error {
	var req createBotRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Capital.IsNegative() {
		return s.fail(c, http.StatusBadRequest, "capital_invalid")
	}
	if req.Name == "" {
		req.Name = "Bot"
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	bot := api.Bot{
		ID:       "bot-" + uuid.NewString()[:8],
		Name:     req.Name,
		Strategy: req.StrategyID,
		Status:   api.BotActive,
		Profit:   decimal.Zero,
		Runtime:  "0d",
		Capital:  req.Capital,
		Tags:     req.Tags,
		Paper:    true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots = append([]api.Bot{bot}, s.bots...)
	return s.ok(c, bot)
}

// findBot returns a pointer into s.bots; callers hold s.mu.
func (s *Server) findBot(id string) *api.Bot {
	for i := range s.bots {
		if s.bots[i].ID == id {
			return &s.bots[i]
		}
	}
	return nil
}

func (s *Server) updateBotStatus(c echo.Context) error {
	var req botStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	status := api.BotStatus(req.Status)
	if status == "running" {
		status = api.BotActive
	}
	if !slices.Contains(botStatuses, status) {
		return s.fail(c, http.StatusBadRequest, "invalid_status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bot := s.findBot(c.Param("id"))
	if bot == nil {
		return s.fail(c, http.StatusNotFound, "not_found")
	}
	bot.Status = status
	return s.ok(c, *bot)
}

func (s *Server) botPerformance(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bot := s.findBot(c.Param("id"))
	if bot == nil {
		return s.fail(c, http.StatusNotFound, "not_found")
	}
	return s.ok(c, api.BotPerformance{Equity: []api.EquityPoint{}, Orders: []api.Order{}})
}

// backtestResult stamps the request parameters onto the fixture result.
func (s *Server) backtestResult(symbol, interval string, limit int) api.Backtest {
	result := s.backtest
	result.Symbol = symbol
	result.Interval = interval
	result.Limit = limit
	return result
}

func (s *Server) latestBacktest(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		symbol = defaultSymbol
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		limit = defaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ok(c, s.backtestResult(symbol, c.QueryParam("interval"), limit))
}

func (s *Server) runBacktest(c echo.Context) error {
	var req runBacktestRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Symbol == "" {
		req.Symbol = defaultSymbol
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = s.backtestResult(req.Symbol, req.Interval, req.Limit)
	return s.ok(c, map[string]string{"job_id": id})
}

func (s *Server) backtestJob(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.jobs[c.Param("id")]
	if !ok {
		// unknown ids look queued, as with a task broker
		return s.ok(c, api.BacktestJob{Status: jobStatusQueued})
	}
	return s.ok(c, api.BacktestJob{Status: jobStatusDone, Result: &result})
}

func (s *Server) hotPosts(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := slices.Clone(s.posts)
	slices.SortStableFunc(posts, func(a, b api.Post) int {
		return b.Likes - a.Likes
	})
	return s.ok(c, head(posts))
}

func (s *Server) createPost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	post := api.Post{
		ID:        "post-" + uuid.NewString()[:8],
		Title:     req.Title,
		Author:    req.Author,
		Avatar:    req.Avatar,
		Timestamp: api.Stamp(strconv.FormatInt(time.Now().UnixMilli(), 10)),
		Tags:      req.Tags,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]api.Post{post}, s.posts...)
	return s.ok(c, post)
}

func (s *Server) uploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return s.fail(c, http.StatusBadRequest, "file_required")
	}
	if !slices.Contains(allowedUploadExt, strings.ToLower(filepath.Ext(fh.Filename))) {
		return s.fail(c, http.StatusBadRequest, "invalid_file_type")
	}
	if fh.Size > maxUploadBytes {
		return s.fail(c, http.StatusBadRequest, "file_too_large")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	size, err := io.Copy(io.Discard, f)
	if err != nil {
		return err
	}

	meta := api.File{
		ID:          uuid.NewString(),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        size,
	}
	if email, ok := c.Get("email").(string); ok {
		meta.Owner = email
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[meta.ID] = meta
	return s.ok(c, meta)
}

func head[T any](items []T) []T {
	if len(items) > maxListSize {
		return items[:maxListSize]
	}
	return items
}
