package store

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/qyquant/qyquant-client/api"
	"github.com/qyquant/qyquant-client/logger"
)

// maxConcurrentLoads bounds the requests LoadAll has in flight.
const maxConcurrentLoads = 4

// Dashboard holds the resources of the dashboard view.
type Dashboard struct {
	Strategies *Resource[[]api.Strategy]
	Bots       *Resource[[]api.Bot]
	Backtest   *Resource[api.Backtest]
	Posts      *Resource[[]api.Post]
}

// NewDashboard wires each resource to its endpoint. query selects the
// market data of the backtest panel.
func NewDashboard(c *api.Client, query api.BacktestQuery, log logger.Logger) *Dashboard {
	return &Dashboard{
		Strategies: NewResource[[]api.Strategy]("strategies", c.RecentStrategies, log),
		Bots:       NewResource[[]api.Bot]("bots", c.RecentBots, log),
		Backtest: NewResource[api.Backtest]("backtest", func(ctx context.Context) (api.Backtest, error) {
			return c.LatestBacktest(ctx, query)
		}, log),
		Posts: NewResource[[]api.Post]("posts", c.HotPosts, log),
	}
}

// LoadAll loads every resource concurrently. One failing panel does not stop
// the others; the returned error joins every failure.
func (d *Dashboard) LoadAll(ctx context.Context) error {
	loads := []func(context.Context) error{
		d.Strategies.Load,
		d.Bots.Load,
		d.Backtest.Load,
		d.Posts.Load,
	}

	errs := make([]error, len(loads))
	var g errgroup.Group
	g.SetLimit(maxConcurrentLoads)
	for i, load := range loads {
		g.Go(func() error {
			errs[i] = load(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
