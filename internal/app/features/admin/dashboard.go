// internal/app/features/admin/dashboard.go
package admin

import (
	"net/http"

	metricsstore "github.com/dalemusser/courseportal/internal/app/store/metrics"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/go-chi/render"
)

// recentStudentsLimit is how many newly registered students the dashboard lists.
const recentStudentsLimit = 10

type dashboardResponse struct {
	metricsstore.Counts
	RecentEnrollments []studentRow `json:"recentEnrollments"`
}

// ServeDashboard handles GET /api/admin/dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "admin dashboard")
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.DB)

	active := true
	recent, err := h.Students.Find(ctx, studentstore.Filter{Active: &active}, 0, recentStudentsLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load recent students failed", err, "Error fetching dashboard data")
		return
	}
	rows, err := h.buildRows(ctx, recent, rowOptions{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve recent students failed", err, "Error fetching dashboard data")
		return
	}

	render.JSON(w, r, dashboardResponse{Counts: counts, RecentEnrollments: rows})
}
