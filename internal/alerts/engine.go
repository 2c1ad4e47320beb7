package alerts

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Store is the portfolio/watchlist storage the alert cycle reads from
// and writes watermarks back to.
type Store interface {
	ListAllPositions() ([]*models.PortfolioEntry, error)
	UpdateLastNotified(positionID int, price decimal.Decimal) error
	ListAllWatchlist() ([]*models.WatchlistJoined, error)
	MarkWatchAlertSent(entryID int, level int) error
}

// QuoteProvider fetches a current price snapshot for a symbol.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Notifier delivers alert events to users. Delivery failures are logged
// by the engine, never propagated into the cycle's control flow.
type Notifier interface {
	SendAlert(ctx context.Context, event *models.AlertEvent) error
	SendWatchAlert(ctx context.Context, event *models.WatchAlertEvent) error
}

// Engine runs the periodic price-alert cycle. It is stateless between
// runs except for the watermarks and flags it writes to the store.
type Engine struct {
	store     Store
	quotes    QuoteProvider
	notifier  Notifier
	threshold decimal.Decimal
	pacing    time.Duration
	log       *zap.SugaredLogger
}

// New creates an alert engine. thresholdPercent is the percent move
// that triggers a portfolio alert; pacing is the delay between
// successive quote fetches within one cycle.
func New(store Store, quotes QuoteProvider, notifier Notifier, thresholdPercent float64, pacing time.Duration, log *zap.SugaredLogger) *Engine {
	return &Engine{
		store:     store,
		quotes:    quotes,
		notifier:  notifier,
		threshold: decimal.NewFromFloat(thresholdPercent),
		pacing:    pacing,
		log:       log,
	}
}

// RunCycle evaluates every held and watched symbol once. One quote is
// fetched per distinct symbol regardless of how many users hold it.
// A failure on one symbol never aborts the remaining symbols, and the
// cycle as a whole never panics out into the host process.
func (e *Engine) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("alert cycle panicked", "panic", r)
		}
	}()

	positions, err := e.store.ListAllPositions()
	if err != nil {
		e.log.Errorw("failed to load positions for alert cycle", "error", err)
		return
	}
	watches, err := e.store.ListAllWatchlist()
	if err != nil {
		e.log.Errorw("failed to load watchlist for alert cycle", "error", err)
		watches = nil
	}

	if len(positions) == 0 && len(watches) == 0 {
		return
	}

	bySymbol := make(map[string][]*models.PortfolioEntry)
	for _, p := range positions {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
	}
	watchesBySymbol := make(map[string][]*models.WatchlistJoined)
	for _, w := range watches {
		watchesBySymbol[w.Symbol] = append(watchesBySymbol[w.Symbol], w)
	}

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	for symbol := range watchesBySymbol {
		if _, held := bySymbol[symbol]; !held {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	for i, symbol := range symbols {
		if i > 0 && e.pacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.pacing):
			}
		}

		quote, err := e.quotes.GetQuote(ctx, symbol)
		if err != nil {
			// Unknown symbols and provider throttling are expected;
			// only surface unexpected failure kinds.
			switch apperrors.KindOf(err) {
			case apperrors.KindNotFound, apperrors.KindRateLimited:
			default:
				e.log.Errorw("failed to fetch quote", "symbol", symbol, "error", err)
			}
			continue
		}

		e.evaluatePositions(ctx, quote, bySymbol[symbol])
		e.evaluateWatches(ctx, quote, watchesBySymbol[symbol])
	}
}

func (e *Engine) evaluatePositions(ctx context.Context, quote *models.Quote, entries []*models.PortfolioEntry) {
	for _, entry := range entries {
		if !ShouldAlert(quote.CurrentPrice, entry.BuyPrice, entry.LastNotified, e.threshold) {
			continue
		}

		event := &models.AlertEvent{
			EventType:     models.EventPriceAlert,
			TelegramID:    entry.TelegramID,
			Symbol:        entry.Symbol,
			CurrentPrice:  quote.CurrentPrice,
			BuyPrice:      entry.BuyPrice,
			PercentChange: PercentChange(quote.CurrentPrice, entry.BuyPrice),
			Quantity:      entry.Quantity,
			Timestamp:     time.Now(),
		}

		if err := e.notifier.SendAlert(ctx, event); err != nil {
			e.log.Errorw("failed to deliver alert",
				"symbol", entry.Symbol, "telegram_id", entry.TelegramID, "error", err)
			continue
		}
		// Advance the watermark only after the alert actually went out.
		if err := e.store.UpdateLastNotified(entry.ID, quote.CurrentPrice); err != nil {
			e.log.Errorw("failed to update alert watermark",
				"symbol", entry.Symbol, "position_id", entry.ID, "error", err)
		}
	}
}

func (e *Engine) evaluateWatches(ctx context.Context, quote *models.Quote, entries []*models.WatchlistJoined) {
	for _, entry := range entries {
		for _, level := range WatchLevelsCrossed(quote.CurrentPrice, entry.BasePrice, entry.Alert3Sent, entry.Alert5Sent) {
			event := &models.WatchAlertEvent{
				EventType:     models.EventWatchAlert,
				TelegramID:    entry.TelegramID,
				Symbol:        entry.Symbol,
				BasePrice:     entry.BasePrice,
				CurrentPrice:  quote.CurrentPrice,
				PercentChange: PercentChange(quote.CurrentPrice, entry.BasePrice),
				Level:         level,
				Timestamp:     time.Now(),
			}

			if err := e.notifier.SendWatchAlert(ctx, event); err != nil {
				e.log.Errorw("failed to deliver watch alert",
					"symbol", entry.Symbol, "telegram_id", entry.TelegramID, "error", err)
				continue
			}
			if err := e.store.MarkWatchAlertSent(entry.ID, level); err != nil {
				e.log.Errorw("failed to mark watch alert sent",
					"symbol", entry.Symbol, "entry_id", entry.ID, "error", err)
			}
		}
	}
}
