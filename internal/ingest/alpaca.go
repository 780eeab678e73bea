package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"oshan/internal/store"
)

// snapshotGetter is the slice of the market-data client the refresher needs.
type snapshotGetter interface {
	GetSnapshots(symbols []string, req marketdata.GetSnapshotRequest) (map[string]*marketdata.Snapshot, error)
}

// PriceRefresher updates stored stock prices from Alpaca market-data
// snapshots.
type PriceRefresher struct {
	client snapshotGetter
	stocks store.StockStore
	log    *slog.Logger
}

// NewPriceRefresher creates a PriceRefresher with the given Alpaca
// credentials. dataURL may be empty to use the default endpoint.
func NewPriceRefresher(apiKey, apiSecret, dataURL string, stocks store.StockStore, log *slog.Logger) *PriceRefresher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &PriceRefresher{
		client: marketdata.NewClient(opts),
		stocks: stocks,
		log:    log,
	}
}

// Refresh fetches snapshots for the given symbols and writes current and
// previous-close prices to the store. Symbols without a snapshot are
// skipped. It returns the number of symbols updated.
func (p *PriceRefresher) Refresh(ctx context.Context, symbols []string) (int, error) {
	if len(symbols) == 0 {
		return 0, nil
	}
	snapshots, err := p.client.GetSnapshots(symbols, marketdata.GetSnapshotRequest{})
	if err != nil {
		return 0, fmt.Errorf("fetching snapshots: %w", err)
	}

	updated := 0
	for _, symbol := range symbols {
		snap := snapshots[symbol]
		if snap == nil || snap.LatestTrade == nil {
			p.log.Warn("no snapshot for symbol", "symbol", symbol)
			continue
		}
		current := snap.LatestTrade.Price
		previousClose := current
		if snap.PrevDailyBar != nil {
			previousClose = snap.PrevDailyBar.Close
		}
		if err := p.stocks.UpdatePrices(ctx, symbol, current, previousClose); err != nil {
			p.log.Error("updating prices", "symbol", symbol, "error", err)
			continue
		}
		updated++
	}
	p.log.Info("price refresh complete", "requested", len(symbols), "updated", updated)
	return updated, nil
}
