package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// TransactionHandler serves transaction-related HTTP endpoints.
type TransactionHandler struct {
	txs    domain.TransactionStore
	logger *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler with the given store and logger.
func NewTransactionHandler(txs domain.TransactionStore, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		txs:    txs,
		logger: logHandler(logger, "transactions"),
	}
}

// listTransactionsResponse wraps the list transactions response.
type listTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// ListTransactions returns recently filed transactions, most recent first.
// GET /api/transactions?limit=50&offset=0&since=2026-01-01&until=2026-02-01
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		opts.Since = &t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "until must be YYYY-MM-DD")
			return
		}
		opts.Until = &t
	}

	txs, err := h.txs.ListRecent(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list transactions failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}

	writeJSON(w, http.StatusOK, listTransactionsResponse{
		Transactions: txs,
		Count:        len(txs),
	})
}
