package mockapi

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/qyquant/qyquant-client/api"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// fixtures decode into the client's own types, so the mock cannot serve a
// shape the client would not read.
type fixtures struct {
	user       api.User
	bots       []api.Bot
	posts      []api.Post
	strategies []api.Strategy
	backtest   api.Backtest
}

// loadFixtures decodes a fresh copy of the seed data, so servers never share state.
func loadFixtures() (*fixtures, error) {
	fx := &fixtures{}
	for name, out := range map[string]any{
		"user.json":       &fx.user,
		"bots.json":       &fx.bots,
		"posts.json":      &fx.posts,
		"strategies.json": &fx.strategies,
		"backtest.json":   &fx.backtest,
	} {
		raw, err := fixtureFS.ReadFile("fixtures/" + name)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode fixture %s: %w", name, err)
		}
	}
	return fx, nil
}
