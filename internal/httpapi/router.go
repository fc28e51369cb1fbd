// Package httpapi serves a small read-only HTTP surface next to the board:
// health, Prometheus metrics, the active orders and a history download.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/history"
	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/state"
)

// Source provides the board state the handlers read.
type Source interface {
	Snapshot() state.Snapshot
	Now() time.Time
}

// Options configures the router.
type Options struct {
	Source Source
	Logger *zap.Logger
}

// NewRouter builds the chi router.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(accessLog(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/orders", listOrdersHandler(opts.Source))
		api.Get("/history/export", exportHistoryHandler(opts.Source, logger))
	})

	return r
}

// ordersResponse is the body of GET /api/orders. Orders use their stored
// document form; classes maps each id to its card color.
type ordersResponse struct {
	Orders      []order.Order          `json:"orders"`
	Classes     map[string]order.Class `json:"classes"`
	LastUpdated *time.Time             `json:"lastUpdated"`
	Offline     bool                   `json:"offline"`
}

func listOrdersHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := src.Snapshot()
		now := src.Now()

		resp := ordersResponse{
			Orders: snap.Orders,
			Classes: lo.SliceToMap(snap.Orders, func(o order.Order) (string, order.Class) {
				return o.ID, order.StatusClass(o, now)
			}),
			Offline: snap.IsOffline(),
		}
		if resp.Orders == nil {
			resp.Orders = []order.Order{}
		}
		if !snap.LastUpdated.IsZero() {
			resp.LastUpdated = &snap.LastUpdated
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func exportHistoryHandler(src Source, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := history.Encode(src.Snapshot().History)
		if err != nil {
			logger.Error("encode history export", zap.Error(err))
			http.Error(w, "encode history", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", history.ExportFileName))
		_, _ = w.Write(data)
	}
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}

// Serve runs an HTTP server on addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}
