package http

import (
	"errors"
	"net/http"

	"finflow/internal/core"
	"finflow/internal/storage"
)

// recurringRow is the template-facing shape of one recurring template.
type recurringRow struct {
	ID      int64
	Kind    string
	Label   string
	Amount  string
	Every   string
	Start   string
	End     string
	LastRun string
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderRecurringPage(w, r, "")
	case http.MethodPost:
		s.createRecurring(w, r)
	case http.MethodDelete:
		s.handleDeleteRecurring(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderRecurringPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	userID := currentUser(r)

	templates, err := s.finance.ListRecurring(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load recurring transactions", http.StatusInternalServerError)
		return
	}

	rows := make([]recurringRow, 0, len(templates))
	for _, rt := range templates {
		row := recurringRow{
			ID:     rt.ID,
			Kind:   string(rt.Kind),
			Label:  rt.Label,
			Amount: s.formatMoney(rt.Amount),
			Every:  string(rt.Every),
			Start:  rt.StartDate.ISO(),
		}
		if !rt.EndDate.IsZero() {
			row.End = rt.EndDate.ISO()
		}
		if !rt.LastExecution.IsZero() {
			row.LastRun = rt.LastExecution.Format("2006-01-02")
		}
		rows = append(rows, row)
	}

	s.render(w, r, "recurring.html", map[string]any{
		"Templates": rows,
		"Error":     errMsg,
	})
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.entryError(w, r, "recurring.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(parser.Value("amount"))
	if err != nil {
		if parser.IsJSON() {
			respondJSONError(w, http.StatusBadRequest, "could not parse amount")
			return
		}
		s.renderRecurringPage(w, r, "Could not understand the amount")
		return
	}

	start, err := core.ParseDate(parser.Value("start_date"))
	if err != nil {
		s.entryError(w, r, "recurring.html", "Invalid start date", http.StatusBadRequest)
		return
	}

	var end core.Date
	if raw := parser.Get("end_date"); raw != "" {
		end, err = core.ParseDate(raw)
		if err != nil {
			s.entryError(w, r, "recurring.html", "Invalid end date", http.StatusBadRequest)
			return
		}
	}

	rt := core.RecurringTransaction{
		UserID:    userID,
		Kind:      core.TransactionKind(parser.Get("kind")),
		Amount:    core.Money{Amount: amount},
		Label:     parser.Get("label"),
		Every:     core.Repetition(parser.Get("every")),
		StartDate: start,
		EndDate:   end,
	}

	created, err := s.finance.CreateRecurring(r.Context(), rt)
	if err != nil {
		s.entryError(w, r, "recurring.html", "Could not save the template: "+err.Error(), http.StatusBadRequest)
		return
	}

	if parser.IsJSON() {
		respondJSON(w, http.StatusCreated, map[string]any{"id": created.ID})
		return
	}
	http.Redirect(w, r, "/finance/recurring", http.StatusSeeOther)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := currentUser(r)

	id, err := entryID(r)
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	if err := s.finance.DeleteRecurring(r.Context(), userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete template", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/finance/recurring", http.StatusSeeOther)
}
