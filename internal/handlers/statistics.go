package handlers

import (
	"net/http"
	"time"

	"homeledger/internal/middleware"
	"homeledger/internal/money"
)

const reportDateLayout = "2006-01-02"

// Statistics reports per-account turnover for transactions dated inside
// [from, to], all totals converted to the reporting currency. Both
// bounds are required, date-only, inclusive.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	from, err := time.Parse(reportDateLayout, r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		return
	}
	to, err := time.Parse(reportDateLayout, r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		return
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "from must not follow to")
		return
	}
	// The to bound covers the whole day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	report, err := h.reports.PeriodStatistics(r.Context(), userID, from, to)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "report unavailable")
		return
	}

	lines := make([]map[string]any, 0, len(report.Lines))
	for _, line := range report.Lines {
		lines = append(lines, map[string]any{
			"account_id":   line.AccountID,
			"account_name": line.AccountName,
			"currency_id":  line.CurrencyID,
			"amount":       money.FormatMinor(line.AmountMinor),
			"converted":    money.FormatMinor(line.ConvertedMinor),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"from":     report.From.Format(reportDateLayout),
		"to":       report.To.Format(reportDateLayout),
		"currency": h.cfg.ReportingCurrency,
		"lines":    lines,
		"total":    money.FormatMinor(report.TotalMinor),
	})
}
