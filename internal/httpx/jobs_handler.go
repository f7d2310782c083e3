package httpx

import (
	"context"
	"net/http"
	"time"

	"greenkart/internal/dates"
	"greenkart/internal/recurring"

	"github.com/go-chi/chi/v5"
)

// JobRunner is implemented by recurring.Job.
type JobRunner interface {
	Run(ctx context.Context, target time.Time) (recurring.Summary, error)
}

// JobsHandler exposes a manual trigger for the recurring-order job. The
// optional ?date=YYYY-MM-DD overrides "today" (test harness / backfill).
type JobsHandler struct {
	Runner JobRunner
	Zone   *time.Location
}

func (h *JobsHandler) Register(r *chi.Mux) {
	r.Post("/admin/jobs/recurring-orders", h.runRecurringOrders)
}

func (h *JobsHandler) runRecurringOrders(w http.ResponseWriter, r *http.Request) {
	loc := h.Zone
	if loc == nil {
		loc = dates.LoadZone("")
	}

	target := time.Now().In(loc)
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		target = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	sum, err := h.Runner.Run(ctx, target)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
