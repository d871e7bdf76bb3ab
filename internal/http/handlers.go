package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dailyregister/internal/core"
	"dailyregister/internal/ledger"
)

type newItemRequest struct {
	Code     string  `json:"code"`
	Weight   float64 `json:"weight"`
	Amount   float64 `json:"amount"`
	Billable bool    `json:"is_billable"`
}

type oldItemRequest struct {
	Material string  `json:"material"`
	Weight   float64 `json:"weight"`
	Amount   float64 `json:"amount"`
}

type transactionRequest struct {
	Date     string           `json:"date"`
	Comments string           `json:"comments"`
	NewItems []newItemRequest `json:"new_items"`
	OldItems []oldItemRequest `json:"old_items"`
	Payment  core.Payment     `json:"payment"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	case http.MethodDelete:
		s.deleteDay(w, r)
	default:
		methodNotAllowed(w, "GET, POST, DELETE")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	day, from, to, err := dateParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var txs []core.Transaction
	if day != nil {
		txs, err = s.store.GetByDate(r.Context(), *day)
	} else {
		txs, err = s.store.GetByDateRange(r.Context(), *from, *to)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// createTransaction runs the request through a fresh ledger so the API
// enforces exactly the rules interactive entry does: codes resolve
// against the catalog, quantities are positive, the payment split is
// non-negative.
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	day := core.DateOf(time.Now())
	if strings.TrimSpace(req.Date) != "" {
		var err error
		if day, err = core.ParseDate(req.Date); err != nil {
			writeBadRequest(w, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	l, err := s.buildLedger(req, day)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := l.Commit(r.Context(), s.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) buildLedger(req transactionRequest, day core.Date) (*ledger.Ledger, error) {
	l := ledger.New(s.catalog, day)
	for _, i := range req.NewItems {
		if err := l.AddNewItem(i.Code, i.Weight, i.Amount, i.Billable); err != nil {
			return nil, err
		}
	}
	for _, i := range req.OldItems {
		material, err := core.ParseMaterial(i.Material)
		if err != nil {
			return nil, err
		}
		if err := l.AddOldItem(material, i.Weight, i.Amount); err != nil {
			return nil, err
		}
	}
	if err := l.SetPayment(req.Payment); err != nil {
		return nil, err
	}
	l.SetComments(strings.TrimSpace(req.Comments))
	return l, nil
}

func (s *Server) deleteDay(w http.ResponseWriter, r *http.Request) {
	day, _, _, err := dateParams(r)
	if err != nil || day == nil {
		writeBadRequest(w, "date parameter required")
		return
	}
	count, err := s.store.DeleteAllForDate(r.Context(), *day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

// updateWriter lets a ledger commit replace an existing transaction
// instead of inserting a new one. Corrections go through the same
// validation as entry.
type updateWriter struct {
	store TransactionStore
	id    int64
}

func (u updateWriter) Create(ctx context.Context, t core.Transaction) (int64, error) {
	return u.id, u.store.Update(ctx, u.id, t)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	// the stored date is kept on update; the body's date is ignored
	l, err := s.buildLedger(req, core.Date{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := l.Commit(r.Context(), updateWriter{store: s.store, id: id}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": id})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	day, from, to, err := dateParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var summary core.Summary
	if day != nil {
		summary, err = s.reports.DailySummary(r.Context(), *day)
	} else {
		summary, err = s.reports.RangeSummary(r.Context(), *from, *to)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	day, from, to, err := dateParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var breakdown core.Breakdown
	if day != nil {
		breakdown, err = s.reports.DailyBreakdown(r.Context(), *day)
	} else {
		breakdown, err = s.reports.RangeBreakdown(r.Context(), *from, *to)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

type catalogRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Material string `json:"material"`
}

func (s *Server) handleCatalogCodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.catalog.Entries())
	case http.MethodPost:
		var req catalogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		material, err := core.ParseMaterial(req.Material)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entry := core.CatalogEntry{Code: req.Code, Name: req.Name, Material: material}
		if err := s.catalog.Upsert(r.Context(), entry); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCatalogCodeByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/catalog/codes/")
	if strings.TrimSpace(code) == "" {
		writeBadRequest(w, "code required")
		return
	}
	if err := s.catalog.Delete(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCatalogSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	q := r.URL.Query().Get("q")
	suggestions := s.catalog.Suggest(q)
	if suggestions == nil {
		suggestions = []core.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleBackups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		backups, err := s.backups.List()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, backups)
	case http.MethodPost:
		b, err := s.backups.Create(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleBackupRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeBadRequest(w, "backup name required")
		return
	}

	if err := s.backups.Restore(r.Context(), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	// the restored file may carry a different catalog
	if err := s.catalog.Reload(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Catalog reload after restore failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": req.Name})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	day, from, to, err := dateParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var path string
	if day != nil {
		txs, err := s.store.GetByDate(r.Context(), *day)
		if err != nil {
			writeError(w, r, err)
			return
		}
		path, err = s.exporter.ExportDay(txs, core.Summarize(txs), *day)
		if err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		txs, err := s.store.GetByDateRange(r.Context(), *from, *to)
		if err != nil {
			writeError(w, r, err)
			return
		}
		path, err = s.exporter.ExportRange(txs, core.Summarize(txs), *from, *to)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// dateParams reads either ?date= or the ?from=&to= pair. Exactly one of
// the two forms must be present.
func dateParams(r *http.Request) (day, from, to *core.Date, err error) {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("date")); v != "" {
		d, perr := core.ParseDate(v)
		if perr != nil {
			return nil, nil, nil, errInvalidDate
		}
		return &d, nil, nil, nil
	}

	fromStr, toStr := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if fromStr == "" || toStr == "" {
		return nil, nil, nil, errMissingDate
	}
	f, perr := core.ParseDate(fromStr)
	if perr != nil {
		return nil, nil, nil, errInvalidDate
	}
	t, perr := core.ParseDate(toStr)
	if perr != nil {
		return nil, nil, nil, errInvalidDate
	}
	return nil, &f, &t, nil
}

type paramError string

func (e paramError) Error() string { return string(e) }

const (
	errInvalidDate paramError = "invalid date, want YYYY-MM-DD"
	errMissingDate paramError = "either date or from and to parameters required"
)
