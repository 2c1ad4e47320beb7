package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/worachai/stock-tracker-bot/internal/database"
	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/finnhub"
	"github.com/worachai/stock-tracker-bot/internal/marketaux"
	"github.com/worachai/stock-tracker-bot/internal/models"
	"github.com/worachai/stock-tracker-bot/internal/portfolio"
	"github.com/worachai/stock-tracker-bot/internal/session"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	engine    *portfolio.Engine
	sessions  *session.Manager
	quotes    *finnhub.Client
	news      *marketaux.Client
	newsLimit int
	log       *zap.SugaredLogger
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, engine *portfolio.Engine, sessions *session.Manager,
	quotes *finnhub.Client, news *marketaux.Client, newsLimit int, log *zap.SugaredLogger) *Handler {
	return &Handler{
		db:        db,
		engine:    engine,
		sessions:  sessions,
		quotes:    quotes,
		news:      news,
		newsLimit: newsLimit,
		log:       log,
	}
}

// resolveUser get-or-creates the user addressed by the request path
func (h *Handler) resolveUser(r *http.Request) (*models.User, error) {
	vars := mux.Vars(r)
	telegramID := vars["telegram_id"]
	if telegramID == "" {
		return nil, apperrors.InvalidArgument("telegram_id is required")
	}
	username := r.URL.Query().Get("username")
	user, err := h.db.GetOrCreateUser(telegramID, username)
	if err != nil {
		return nil, apperrors.Unavailable("user store failure", err)
	}
	return user, nil
}

// GetPortfolio handles GET /users/{telegram_id}/portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	positions, err := h.engine.Portfolio(user.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if positions == nil {
		positions = []*models.Position{}
	}
	respondJSON(w, http.StatusOK, positions)
}

// AddPosition handles POST /users/{telegram_id}/portfolio
func (h *Handler) AddPosition(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req struct {
		Symbol   string          `json:"symbol"`
		Price    decimal.Decimal `json:"price"`
		Quantity decimal.Decimal `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	position, err := h.engine.AddPosition(user.ID, req.Symbol, req.Price, req.Quantity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, position)
}

// RemovePosition handles DELETE /users/{telegram_id}/portfolio/{symbol}.
// The quantity query parameter is a positive number or "all".
func (h *Handler) RemovePosition(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	symbol := mux.Vars(r)["symbol"]
	qtyParam := strings.ToLower(r.URL.Query().Get("quantity"))

	var result *models.RemovalResult
	if qtyParam == "" || qtyParam == "all" {
		result, err = h.engine.RemoveAll(user.ID, symbol)
	} else {
		qty, parseErr := decimal.NewFromString(qtyParam)
		if parseErr != nil {
			h.respondError(w, apperrors.InvalidArgument("quantity must be a positive number or \"all\", got %q", qtyParam))
			return
		}
		result, err = h.engine.RemoveQuantity(user.ID, symbol, qty)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ClearPortfolio handles DELETE /users/{telegram_id}/portfolio. The
// destructive clear requires confirm=true, mirroring the bot's
// double-confirmation flow.
func (h *Handler) ClearPortfolio(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		h.respondError(w, apperrors.InvalidArgument("clearing the portfolio requires confirm=true"))
		return
	}

	result, err := h.engine.ClearAll(user.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetWatchlist handles GET /users/{telegram_id}/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	entries, err := h.db.GetWatchlist(user.ID)
	if err != nil {
		h.respondError(w, apperrors.Unavailable("watchlist store failure", err))
		return
	}
	if entries == nil {
		entries = []*models.WatchlistEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// AddWatch handles POST /users/{telegram_id}/watchlist. The current
// quote price becomes the watch's base price.
func (h *Handler) AddWatch(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	symbol, err := portfolio.NormalizeSymbol(req.Symbol)
	if err != nil {
		h.respondError(w, err)
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		h.respondError(w, err)
		return
	}

	entry, err := h.db.AddToWatchlist(user.ID, symbol, quote.CurrentPrice)
	if err != nil {
		h.respondError(w, apperrors.Unavailable("watchlist store failure", err))
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// RemoveWatch handles DELETE /users/{telegram_id}/watchlist/{symbol}
func (h *Handler) RemoveWatch(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	symbol, err := portfolio.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.db.RemoveFromWatchlist(user.ID, symbol); err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = apperrors.Unavailable("watchlist store failure", err)
		}
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearWatchlist handles DELETE /users/{telegram_id}/watchlist
func (h *Handler) ClearWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	deleted, err := h.db.ClearWatchlist(user.ID)
	if err != nil {
		h.respondError(w, apperrors.Unavailable("watchlist store failure", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted_count": deleted})
}

// BeginRemoval handles POST /users/{telegram_id}/removal
func (h *Handler) BeginRemoval(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolveUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	sess, err := h.sessions.Begin(r.Context(), user.TelegramID, user.ID, req.Symbol)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

// ChooseMode handles POST /users/{telegram_id}/removal/mode
func (h *Handler) ChooseMode(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegram_id"]

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	var sess *session.Session
	var err error
	switch strings.ToLower(req.Mode) {
	case "partial":
		sess, err = h.sessions.ChoosePartial(r.Context(), telegramID)
	case "full":
		sess, err = h.sessions.ChooseFull(r.Context(), telegramID)
	default:
		err = apperrors.InvalidArgument("mode must be \"partial\" or \"full\", got %q", req.Mode)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// SubmitQuantity handles POST /users/{telegram_id}/removal/quantity
func (h *Handler) SubmitQuantity(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegram_id"]

	var req struct {
		Quantity string `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	sess, err := h.sessions.SubmitQuantity(r.Context(), telegramID, req.Quantity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// ConfirmRemoval handles POST /users/{telegram_id}/removal/confirm
func (h *Handler) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegram_id"]

	result, err := h.sessions.Confirm(r.Context(), telegramID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CancelRemoval handles DELETE /users/{telegram_id}/removal
func (h *Handler) CancelRemoval(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegram_id"]

	if err := h.sessions.Cancel(r.Context(), telegramID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckQuote handles GET /quotes/{symbol}. The company profile is best
// effort; a missing profile never fails the quote.
func (h *Handler) CheckQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := portfolio.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := struct {
		Quote   *models.Quote          `json:"quote"`
		Profile *models.CompanyProfile `json:"profile,omitempty"`
	}{Quote: quote}

	if profile, err := h.quotes.GetCompanyProfile(r.Context(), symbol); err == nil {
		resp.Profile = profile
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetNews handles GET /news/{symbol}
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	symbol, err := portfolio.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	articles, err := h.news.GetNews(r.Context(), symbol, h.newsLimit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if articles == nil {
		articles = []*models.NewsArticle{}
	}
	respondJSON(w, http.StatusOK, articles)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// respondError maps the error taxonomy onto HTTP statuses. User-caused
// conditions are replied without logging; transient failures are logged
// once here.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperrors.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindInsufficientQuantity:
		status = http.StatusConflict
	case apperrors.KindSessionExpired:
		status = http.StatusGone
	case apperrors.KindRateLimited:
		status = http.StatusTooManyRequests
	case apperrors.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	if !apperrors.IsUserError(err) {
		h.log.Errorw("request failed", "kind", kind.String(), "error", err)
	}

	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
