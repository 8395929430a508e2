package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Stamp is a time value the API sends either as a display string
// ("2026-01-29 14:30", "2h ago") or as epoch milliseconds.
type Stamp string

// UnmarshalJSON accepts a JSON string or number.
func (s *Stamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Stamp(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("stamp: %w", err)
	}
	*s = Stamp(n.String())
	return nil
}

// MarshalJSON writes epoch milliseconds as a JSON number and anything else
// as a string, the shapes UnmarshalJSON accepts.
func (s Stamp) MarshalJSON() ([]byte, error) {
	if ms, err := strconv.ParseInt(string(s), 10, 64); err == nil && strconv.FormatInt(ms, 10) == string(s) {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// Time interprets the stamp as epoch milliseconds or RFC 3339.
func (s Stamp) Time() (time.Time, bool) {
	if ms, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, string(s)); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// User is the signed-in account.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Level         string `json:"level,omitempty"`
	Notifications int    `json:"notifications"`
}

// Health is the API liveness payload.
type Health struct {
	Status string `json:"status"`
}

type StrategyStatus string

const (
	StrategyDraft     StrategyStatus = "draft"
	StrategyRunning   StrategyStatus = "running"
	StrategyPaused    StrategyStatus = "paused"
	StrategyStopped   StrategyStatus = "stopped"
	StrategyCompleted StrategyStatus = "completed"
)

// Strategy is a dashboard strategy card. Percentages are decimals such as 23.5.
type Strategy struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Status      StrategyStatus  `json:"status"`
	Returns     decimal.Decimal `json:"returns"`
	WinRate     decimal.Decimal `json:"winRate"`
	MaxDrawdown decimal.Decimal `json:"maxDrawdown"`
	Tags        []string        `json:"tags"`
	LastUpdate  Stamp           `json:"lastUpdate"`
	Trades      int             `json:"trades"`
}

type BotStatus string

const (
	BotActive  BotStatus = "active"
	BotPaused  BotStatus = "paused"
	BotError   BotStatus = "error"
	BotOffline BotStatus = "offline"
)

// Bot is a running trading bot instance.
type Bot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Strategy string          `json:"strategy"`
	Status   BotStatus       `json:"status"`
	Profit   decimal.Decimal `json:"profit"`
	Runtime  string          `json:"runtime"`
	Capital  decimal.Decimal `json:"capital"`
	Tags     []string        `json:"tags"`
	Paper    bool            `json:"paper"`
}

// NewBot is the body of a bot creation request.
type NewBot struct {
	Name       string          `json:"name"`
	StrategyID string          `json:"strategy_id"`
	Capital    decimal.Decimal `json:"capital"`
	Tags       []string        `json:"tags,omitempty"`
}

// EquityPoint is one sample of a bot's equity curve.
type EquityPoint struct {
	Time  Stamp           `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Order is an order placed by a bot.
type Order struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Side      string              `json:"side"`
	Price     decimal.Decimal     `json:"price"`
	Quantity  decimal.Decimal     `json:"quantity"`
	Status    string              `json:"status"`
	PnL       decimal.NullDecimal `json:"pnl"`
	Timestamp Stamp               `json:"timestamp"`
}

// BotPerformance is a bot's equity curve and order history.
type BotPerformance struct {
	Equity []EquityPoint `json:"equity"`
	Orders []Order       `json:"orders"`
}

// BacktestSummary holds the headline metrics; only TotalReturn is always present.
type BacktestSummary struct {
	TotalReturn      decimal.Decimal     `json:"totalReturn"`
	AnnualizedReturn decimal.NullDecimal `json:"annualizedReturn"`
	SharpeRatio      decimal.NullDecimal `json:"sharpeRatio"`
	MaxDrawdown      decimal.NullDecimal `json:"maxDrawdown"`
	WinRate          decimal.NullDecimal `json:"winRate"`
	ProfitFactor     decimal.NullDecimal `json:"profitFactor"`
	TotalTrades      *int                `json:"totalTrades"`
	AvgHoldingDays   decimal.NullDecimal `json:"avgHoldingDays"`
}

// KlineBar is one candle; Signal is "buy", "sell" or empty.
type KlineBar struct {
	Time   Stamp           `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
	Signal string          `json:"signal,omitempty"`
}

// Trade is a simulated fill of a backtest.
type Trade struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Side      string              `json:"side"`
	Price     decimal.Decimal     `json:"price"`
	Quantity  decimal.Decimal     `json:"quantity"`
	PnL       decimal.NullDecimal `json:"pnl"`
	Timestamp Stamp               `json:"timestamp"`
}

// Backtest is the result of a backtest run.
type Backtest struct {
	Symbol   string          `json:"symbol,omitempty"`
	Interval string          `json:"interval,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Summary  BacktestSummary `json:"summary"`
	Kline    []KlineBar      `json:"kline"`
	Trades   []Trade         `json:"trades"`
}

// BacktestQuery selects the market data of a backtest. Zero fields are left
// to the server defaults (BTCUSDT, 120 bars).
type BacktestQuery struct {
	Symbol    string `json:"symbol,omitempty"`
	Interval  string `json:"interval,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// BacktestJob is the state of an asynchronous backtest.
type BacktestJob struct {
	Status string    `json:"status"`
	Result *Backtest `json:"result,omitempty"`
}

// Done reports whether the job finished successfully.
func (j BacktestJob) Done() bool {
	return j.Status == "SUCCESS"
}

// Post is a forum thread summary.
type Post struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Avatar    string   `json:"avatar"`
	Likes     int      `json:"likes"`
	Comments  int      `json:"comments"`
	Timestamp Stamp    `json:"timestamp"`
	Tags      []string `json:"tags"`
}

// NewPost is the body of a post creation request.
type NewPost struct {
	Title  string   `json:"title"`
	Author string   `json:"author,omitempty"`
	Avatar string   `json:"avatar,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// File describes an uploaded file.
type File struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Owner       string `json:"owner,omitempty"`
}
