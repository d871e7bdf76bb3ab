// Package http exposes the register over a JSON API: transaction entry
// and correction, daily and ranged reports, catalog management and
// backup control.
package http

import (
	"context"
	"net/http"

	"dailyregister/internal/backup"
	"dailyregister/internal/catalog"
	"dailyregister/internal/core"
	"dailyregister/internal/export"
	"dailyregister/internal/middleware/trace"
	"dailyregister/internal/services"
)

// TransactionStore is the slice of the storage layer the API writes
// through.
type TransactionStore interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
	Update(ctx context.Context, id int64, t core.Transaction) error
	Delete(ctx context.Context, id int64) error
	DeleteAllForDate(ctx context.Context, d core.Date) (int64, error)
	GetByDate(ctx context.Context, d core.Date) ([]core.Transaction, error)
	GetByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
}

type Server struct {
	http.Server
	store    TransactionStore
	catalog  *catalog.Catalog
	reports  *services.ReportService
	backups  *backup.Manager
	exporter *export.Exporter
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store TransactionStore, cat *catalog.Catalog, reports *services.ReportService, backups *backup.Manager, exporter *export.Exporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:    store,
		catalog:  cat,
		reports:  reports,
		backups:  backups,
		exporter: exporter,
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: trace.NewMiddleware().Middleware(withSecurityHeaders(mux)),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/breakdown", s.handleBreakdown)
	mux.HandleFunc("/api/catalog/codes", s.handleCatalogCodes)
	mux.HandleFunc("/api/catalog/codes/", s.handleCatalogCodeByName)
	mux.HandleFunc("/api/catalog/suggest", s.handleCatalogSuggest)
	mux.HandleFunc("/api/backups", s.handleBackups)
	mux.HandleFunc("/api/backups/restore", s.handleBackupRestore)
	mux.HandleFunc("/api/export", s.handleExport)

	return s
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
