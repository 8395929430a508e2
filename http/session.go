package http

import (
	"sync"
	"sync/atomic"
)

// MarketStyle selects the price color convention of the dashboard.
type MarketStyle string

const (
	// MarketStyleCN renders rises in red and falls in green.
	MarketStyleCN MarketStyle = "cn"
	// MarketStyleUS renders rises in green and falls in red.
	MarketStyleUS MarketStyle = "us"
)

// Session holds the per-user state shared by every request of a client: the
// bearer token, display preferences and the callback run on a 401.
//
// Token writes are last-writer-wins. A request racing with ClearToken may
// still send the stale token; it then receives a 401 itself and clears again.
type Session struct {
	token atomic.Pointer[string]

	mu             sync.RWMutex
	locale         Locale
	marketStyle    MarketStyle
	onUnauthorized func()
}

// NewSession creates a session with English messages and the cn market style.
func NewSession() *Session {
	return &Session{locale: LocaleEN, marketStyle: MarketStyleCN}
}

// Token returns the bearer token and whether one is set.
func (s *Session) Token() (string, bool) {
	p := s.token.Load()
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// SetToken stores the bearer token attached to subsequent requests.
func (s *Session) SetToken(token string) {
	s.token.Store(&token)
}

// ClearToken removes the bearer token.
func (s *Session) ClearToken() {
	s.token.Store(nil)
}

// Locale returns the language used for client-generated messages and the
// Accept-Language header. It is LocaleEN until SetLocale is called.
func (s *Session) Locale() Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// SetLocale changes the language of client-generated messages. Unsupported
// values are ignored.
func (s *Session) SetLocale(l Locale) {
	if !l.Valid() {
		return
	}
	s.mu.Lock()
	s.locale = l
	s.mu.Unlock()
}

// MarketStyle returns the price color convention, MarketStyleCN by default.
func (s *Session) MarketStyle() MarketStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marketStyle
}

// SetMarketStyle stores the display preference; anything but "us" means "cn".
func (s *Session) SetMarketStyle(style MarketStyle) {
	if style != MarketStyleUS {
		style = MarketStyleCN
	}
	s.mu.Lock()
	s.marketStyle = style
	s.mu.Unlock()
}

// OnUnauthorized registers fn to run after a 401 has cleared the token,
// typically to send the user to a login flow.
func (s *Session) OnUnauthorized(fn func()) {
	s.mu.Lock()
	s.onUnauthorized = fn
	s.mu.Unlock()
}

func (s *Session) handleUnauthorized() {
	s.ClearToken()
	s.mu.RLock()
	fn := s.onUnauthorized
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
