package alerts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// MockAlertStore implements the Store interface for testing
type MockAlertStore struct {
	positions []*models.PortfolioEntry
	watches   []*models.WatchlistJoined

	watermarks map[int]decimal.Decimal // position ID -> last notified price
	watchSent  map[int][]int           // entry ID -> levels marked

	UpdateLastNotifiedErr error
}

func NewMockAlertStore() *MockAlertStore {
	return &MockAlertStore{
		watermarks: make(map[int]decimal.Decimal),
		watchSent:  make(map[int][]int),
	}
}

func (m *MockAlertStore) ListAllPositions() ([]*models.PortfolioEntry, error) {
	return m.positions, nil
}

func (m *MockAlertStore) UpdateLastNotified(positionID int, price decimal.Decimal) error {
	if m.UpdateLastNotifiedErr != nil {
		return m.UpdateLastNotifiedErr
	}
	m.watermarks[positionID] = price
	return nil
}

func (m *MockAlertStore) ListAllWatchlist() ([]*models.WatchlistJoined, error) {
	return m.watches, nil
}

func (m *MockAlertStore) MarkWatchAlertSent(entryID int, level int) error {
	m.watchSent[entryID] = append(m.watchSent[entryID], level)
	return nil
}

// MockQuoteProvider returns canned quotes and counts fetches per symbol
type MockQuoteProvider struct {
	quotes map[string]*models.Quote
	errs   map[string]error

	FetchCounts map[string]int
}

func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{
		quotes:      make(map[string]*models.Quote),
		errs:        make(map[string]error),
		FetchCounts: make(map[string]int),
	}
}

func (m *MockQuoteProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.FetchCounts[symbol]++
	if err, ok := m.errs[symbol]; ok {
		return nil, err
	}
	q, ok := m.quotes[symbol]
	if !ok {
		return nil, apperrors.NotFound("no quote for %s", symbol)
	}
	return q, nil
}

func (m *MockQuoteProvider) setPrice(symbol string, price float64) {
	m.quotes[symbol] = &models.Quote{Symbol: symbol, CurrentPrice: decimal.NewFromFloat(price)}
}

// MockNotifier records delivered events
type MockNotifier struct {
	alerts      []*models.AlertEvent
	watchAlerts []*models.WatchAlertEvent

	SendAlertErr error
}

func (m *MockNotifier) SendAlert(ctx context.Context, event *models.AlertEvent) error {
	if m.SendAlertErr != nil {
		return m.SendAlertErr
	}
	m.alerts = append(m.alerts, event)
	return nil
}

func (m *MockNotifier) SendWatchAlert(ctx context.Context, event *models.WatchAlertEvent) error {
	m.watchAlerts = append(m.watchAlerts, event)
	return nil
}

func newTestEngine(store Store, quotes QuoteProvider, notifier Notifier) *Engine {
	return New(store, quotes, notifier, 5, 0, zap.NewNop().Sugar())
}

func entry(id int, telegramID, symbol string, buy float64, qty float64, lastNotified *decimal.Decimal) *models.PortfolioEntry {
	return &models.PortfolioEntry{
		Position: models.Position{
			ID:           id,
			Symbol:       symbol,
			BuyPrice:     decimal.NewFromFloat(buy),
			Quantity:     decimal.NewFromFloat(qty),
			LastNotified: lastNotified,
		},
		TelegramID: telegramID,
	}
}

// TestRunCycleAlertsAndAdvancesWatermark verifies a threshold move emits
// one alert and records the alerted price as the new watermark
func TestRunCycleAlertsAndAdvancesWatermark(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{entry(1, "111", "AAPL", 100, 10, nil)}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 106)

	notifier := &MockNotifier{}
	engine := newTestEngine(store, quotes, notifier)

	engine.RunCycle(context.Background())

	require.Len(t, notifier.alerts, 1)
	event := notifier.alerts[0]
	assert.Equal(t, models.EventPriceAlert, event.EventType)
	assert.Equal(t, "111", event.TelegramID)
	assert.Equal(t, "AAPL", event.Symbol)
	assert.True(t, event.PercentChange.Equal(decimal.NewFromInt(6)))

	wm, ok := store.watermarks[1]
	require.True(t, ok, "watermark should be recorded")
	assert.True(t, wm.Equal(decimal.NewFromInt(106)))
}

// TestRunCycleQuietBelowThreshold verifies no alert below the threshold
func TestRunCycleQuietBelowThreshold(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{entry(1, "111", "AAPL", 100, 10, nil)}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 104)

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	assert.Empty(t, notifier.alerts)
	assert.Empty(t, store.watermarks)
}

// TestRunCycleOneFetchPerSymbol verifies two holders of the same symbol
// share a single quote fetch but each get their own alert
func TestRunCycleOneFetchPerSymbol(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{
		entry(1, "111", "AAPL", 100, 10, nil),
		entry(2, "222", "AAPL", 90, 5, nil),
		entry(3, "111", "TSLA", 250, 2, nil),
	}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 106)
	quotes.setPrice("TSLA", 251)

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	assert.Equal(t, 1, quotes.FetchCounts["AAPL"])
	assert.Equal(t, 1, quotes.FetchCounts["TSLA"])

	// Both AAPL holders moved past 5%; TSLA did not.
	require.Len(t, notifier.alerts, 2)
	recipients := []string{notifier.alerts[0].TelegramID, notifier.alerts[1].TelegramID}
	assert.ElementsMatch(t, []string{"111", "222"}, recipients)
}

// TestRunCycleSkipsFailedSymbols verifies one symbol's quote failure
// does not block the rest of the cycle
func TestRunCycleSkipsFailedSymbols(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{
		entry(1, "111", "AAPL", 100, 10, nil),
		entry(2, "111", "ZZZZ", 50, 1, nil),
	}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 106)
	quotes.errs["ZZZZ"] = apperrors.RateLimited("throttled")

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "AAPL", notifier.alerts[0].Symbol)
}

// TestRunCycleDeliveryFailureKeepsWatermark verifies a failed delivery
// leaves the watermark untouched so the next cycle retries
func TestRunCycleDeliveryFailureKeepsWatermark(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{entry(1, "111", "AAPL", 100, 10, nil)}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 106)

	notifier := &MockNotifier{SendAlertErr: assert.AnError}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	assert.Empty(t, store.watermarks, "watermark must not advance when delivery fails")

	// Delivery recovers; the same move alerts on the next cycle.
	notifier.SendAlertErr = nil
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())
	assert.Len(t, notifier.alerts, 1)
	assert.Contains(t, store.watermarks, 1)
}

// TestRunCycleWatermarkSuppression verifies a second cycle inside the
// watermark band stays silent
func TestRunCycleWatermarkSuppression(t *testing.T) {
	wm := decimal.NewFromInt(106)
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{entry(1, "111", "AAPL", 100, 10, &wm)}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("AAPL", 107)

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())
	assert.Empty(t, notifier.alerts, "7% from buy but inside the watermark band")

	quotes.setPrice("AAPL", 112)
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())
	assert.Len(t, notifier.alerts, 1)
}

// TestRunCycleWatchAlerts verifies watch entries fire their one-shot
// levels and get marked, including both levels on a single jump
func TestRunCycleWatchAlerts(t *testing.T) {
	store := NewMockAlertStore()
	store.watches = []*models.WatchlistJoined{
		{
			WatchlistEntry: models.WatchlistEntry{
				ID: 7, Symbol: "NVDA", BasePrice: decimal.NewFromInt(100),
			},
			TelegramID: "333",
		},
	}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("NVDA", 107)

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	require.Len(t, notifier.watchAlerts, 2)
	assert.Equal(t, 3, notifier.watchAlerts[0].Level)
	assert.Equal(t, 5, notifier.watchAlerts[1].Level)
	assert.Equal(t, []int{3, 5}, store.watchSent[7])
}

// TestRunCycleWatchedAndHeldSymbolFetchedOnce verifies a symbol both
// held and watched costs a single quote fetch
func TestRunCycleWatchedAndHeldSymbolFetchedOnce(t *testing.T) {
	store := NewMockAlertStore()
	store.positions = []*models.PortfolioEntry{entry(1, "111", "NVDA", 100, 1, nil)}
	store.watches = []*models.WatchlistJoined{
		{
			WatchlistEntry: models.WatchlistEntry{
				ID: 7, Symbol: "NVDA", BasePrice: decimal.NewFromInt(100),
			},
			TelegramID: "222",
		},
	}

	quotes := NewMockQuoteProvider()
	quotes.setPrice("NVDA", 106)

	notifier := &MockNotifier{}
	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	assert.Equal(t, 1, quotes.FetchCounts["NVDA"])
	assert.Len(t, notifier.alerts, 1)
	assert.Len(t, notifier.watchAlerts, 2)
}

// TestRunCycleEmptyStateDoesNothing verifies an empty portfolio and
// watchlist skip quote fetching entirely
func TestRunCycleEmptyStateDoesNothing(t *testing.T) {
	store := NewMockAlertStore()
	quotes := NewMockQuoteProvider()
	notifier := &MockNotifier{}

	newTestEngine(store, quotes, notifier).RunCycle(context.Background())

	assert.Empty(t, quotes.FetchCounts)
	assert.Empty(t, notifier.alerts)
}
