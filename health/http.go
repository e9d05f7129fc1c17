package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// CheckResponse is the JSON form of a Result.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ReportResponse is the JSON form of a Report.
type ReportResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

func toResponse(r Result) CheckResponse {
	out := CheckResponse{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// HandlerOptions tunes the handlers built by Routes.
type HandlerOptions struct {
	// Gauge, when set, is updated on every full run.
	Gauge *StatusGauge
}

// Routes mounts the probe endpoints on r.
func Routes(r *mux.Router, agg *Aggregator, opts HandlerOptions) {
	r.HandleFunc("/healthz", LivenessHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", ReadinessHandler(agg, opts)).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", ReportHandler(agg, opts)).Methods(http.MethodGet)
	r.HandleFunc("/health/{check}", SingleCheckHandler(agg)).Methods(http.MethodGet)
}

// LivenessHandler answers 200 OK while the process is serving.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler runs every check and answers OK, DEGRADED (both 200) or
// UNHEALTHY (503).
func ReadinessHandler(agg *Aggregator, opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.Run(r.Context())
		if opts.Gauge != nil {
			opts.Gauge.Record(report)
		}

		body := "OK"
		switch report.Status {
		case StatusDegraded:
			body = "DEGRADED"
		case StatusUnhealthy:
			body = "UNHEALTHY"
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(httpStatus(report.Status))
		_, _ = w.Write([]byte(body))
	}
}

// ReportHandler runs every check and writes a ReportResponse.
func ReportHandler(agg *Aggregator, opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.Run(r.Context())
		if opts.Gauge != nil {
			opts.Gauge.Record(report)
		}

		resp := ReportResponse{
			Status:    report.Status.String(),
			Timestamp: report.Checked.UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(report.Results)),
		}
		for name, res := range report.Results {
			resp.Checks[name] = toResponse(res)
		}
		writeJSON(w, httpStatus(report.Status), resp)
	}
}

// SingleCheckHandler runs the check named by the {check} route variable.
func SingleCheckHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := agg.Check(r.Context(), mux.Vars(r)["check"])
		if errors.Is(err, ErrCheckerNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, httpStatus(res.Status), toResponse(res))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
