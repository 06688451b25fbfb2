package client

import (
	"context"
	"time"
)

// RefreshInterval is how often a board re-fetches.
const RefreshInterval = 15 * time.Second

// Board is a ranked issue listing that refreshes itself.
type Board struct {
	client   *Client
	opts     ListOptions
	interval time.Duration
}

// NewBoard polls with opts. An empty sort means the priority board (most supported).
func NewBoard(c *Client, opts ListOptions) *Board {
	if opts.Sort == "" {
		opts.Sort = SortSupported
	}
	return &Board{client: c, opts: opts, interval: RefreshInterval}
}

// Top returns a board of the n most supported issues.
func Top(c *Client, n int) *Board {
	return NewBoard(c, ListOptions{Sort: SortSupported, Limit: n})
}

// Recent returns a board of the n newest issues.
func Recent(c *Client, n int) *Board {
	return NewBoard(c, ListOptions{Sort: SortRecent, Limit: n})
}

func (b *Board) Fetch(ctx context.Context) ([]Issue, error) {
	return b.client.ListIssues(ctx, b.opts)
}

// Run fetches immediately and then on every tick until ctx is cancelled. Each
// result, including errors, goes to render; a failed fetch does not stop polling.
func (b *Board) Run(ctx context.Context, render func([]Issue, error)) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		issues, err := b.Fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		render(issues, err)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
