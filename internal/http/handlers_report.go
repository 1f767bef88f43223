package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"finflow/internal/core"
	"finflow/internal/log"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := currentUser(r)
	month := monthParam(r)

	report, err := s.finance.MonthReport(r.Context(), userID, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Month":   report.Month,
		"Income":  s.formatMoney(report.Income),
		"Expense": s.formatMoney(report.Expense),
	}
	if report.Budget != nil {
		data["Budget"] = s.formatMoney(*report.Budget)
		data["Remaining"] = s.formatMoney(*report.Remaining)
		data["Overspent"] = report.Remaining.IsNegative()
	}

	categories := make([]categoryRow, 0, len(report.ByCategory))
	for _, c := range report.ByCategory {
		categories = append(categories, categoryRow{
			Category: c.Category,
			Amount:   s.formatMoney(c.Amount),
		})
	}
	data["Categories"] = categories

	s.render(w, r, "reports.html", data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := currentUser(r)

	// Buffer the CSV so a storage failure mid-export does not produce a
	// truncated download with a 200 status.
	var buf bytes.Buffer
	if err := s.finance.ExportCSV(r.Context(), userID, &buf); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed",
			log.FieldOperation, log.OpExport,
			log.FieldUserID, userID,
			log.FieldError, err.Error())
		http.Error(w, "failed to export transactions", http.StatusInternalServerError)
		return
	}

	filename := "finflow-export-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = buf.WriteTo(w)
}

// handleAPISummary serves the JSON month summary used by API clients.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := currentUser(r)
	month := monthParam(r)

	report, err := s.finance.MonthReport(r.Context(), userID, month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			respondJSONError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	payload := map[string]any{
		"month":         report.Month,
		"start":         report.Start.ISO(),
		"end":           report.End.ISO(),
		"income_cents":  report.Income.Cents(),
		"expense_cents": report.Expense.Cents(),
	}
	if report.Budget != nil {
		payload["budget_cents"] = report.Budget.Cents()
		payload["remaining_cents"] = report.Remaining.Cents()
	}

	categories := make([]map[string]any, 0, len(report.ByCategory))
	for _, c := range report.ByCategory {
		categories = append(categories, map[string]any{
			"category":     c.Category,
			"amount_cents": c.Amount.Cents(),
		})
	}
	payload["by_category"] = categories

	respondJSON(w, http.StatusOK, payload)
}
