package controllers

import (
	"net/http"
	"time"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/internal/commissions"
	"github.com/cartelabolao/cartela-admin/internal/dashboard"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

// DashboardStats returns the aggregated counters shown on the home screen.
func DashboardStats(svc dashboard.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("dashboard"))
			return
		}

		stats, err := svc.Stats(r.Context(), now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// CommissionReport returns per-seller commission totals over paid sales.
func CommissionReport(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("commissions"))
			return
		}

		editionID, err := queryUUID(r, "edition_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := queryEnum(r, "kind", enums.ParseSellerKind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Report(r.Context(), commissions.ReportParams{EditionID: editionID, Kind: kind})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
