package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/vendora/catalog"
	"github.com/jonwraymond/vendora/health"
	"github.com/jonwraymond/vendora/observe"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes, metrics and a read-only catalog API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}
			router, err := a.router()
			if err != nil {
				return err
			}
			return serveHTTP(cmd.Context(), a.logger, addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default serve.addr)")
	return cmd
}

func (a *app) router() (*mux.Router, error) {
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gauge, err := health.NewStatusGauge(a.registry)
	if err != nil {
		return nil, err
	}

	agg := health.NewAggregator(health.AggregatorConfig{CheckTimeout: 2 * time.Second})
	checks := []health.Checker{
		health.BackendCheck(a.client),
		health.StoreCheck("store", a.store),
	}
	if a.breaker != nil {
		checks = append(checks, health.CircuitCheck("backend_circuit", a.breaker))
	}
	if err := agg.Register(checks...); err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	health.Routes(r, agg, health.HandlerOptions{Gauge: gauge})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", a.handleProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", a.handleProduct).Methods(http.MethodGet)
	api.HandleFunc("/categories", a.handleCategories).Methods(http.MethodGet)
	return r, nil
}

func (a *app) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.catalog.Products.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := catalog.Filter{Category: q.Get("category"), Search: q.Get("search")}
	writeJSON(w, http.StatusOK, filter.Apply(products))
}

func (a *app) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, ok, err := a.catalog.Products.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *app) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Categories.List(r.Context()))
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Warn(r.Context(), "api request failed",
		observe.Field{Key: "path", Value: r.URL.Path}, observe.Err(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serveHTTP runs until ctx is cancelled, then drains connections.
func serveHTTP(ctx context.Context, logger observe.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
