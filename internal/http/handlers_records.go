package http

import (
	"net/http"
	"strconv"

	"ledger/internal/confirm"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	view, err := s.service.RecordView(ws)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var in core.RecordInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.addRecords(w, r, []core.RecordInput{in})
}

type batchRequest struct {
	Records []core.RecordInput `json:"records"`
}

// handleAddRecords inserts the valid rows of a batch and reports how many were skipped.
func (s *Server) handleAddRecords(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.addRecords(w, r, req.Records)
}

func (s *Server) addRecords(w http.ResponseWriter, r *http.Request, rows []core.RecordInput) {
	_, ws := sessionFrom(r.Context())
	added, err := s.service.AddRecords(r.Context(), ws, sanitizeRecords(rows))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"records": added,
		"skipped": len(rows) - len(added),
	}).Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var in core.RecordInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := s.service.UpdateRecord(r.Context(), ws, id, sanitizeRecord(in))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	pending, err := s.service.RequestDeleteRecord(ws, id)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(pending).Write(w)
}

type confirmResponse struct {
	Deleted confirm.Target `json:"deleted"`
	Message string         `json:"message"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	target, err := s.service.Confirm(r.Context(), ws, r.PathValue("token"))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	msg := "Record deleted successfully"
	if target.Kind == confirm.DeleteCustomer {
		msg = "Customer deleted successfully"
	}
	NewJSONResponse().Body(confirmResponse{Deleted: target, Message: msg}).Write(w)
}

func (s *Server) handleCancelConfirmation(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	NewJSONResponse().Body(map[string]bool{"cancelled": s.service.Cancel(ws)}).Write(w)
}

// handleSetFilter stores the bounds as typed; they take effect on apply.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	var rng core.DateRange
	if err := DecodeJSON(w, r, &rng); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.service.SetFilter(ws, core.DateRange{From: sanitizeInput(rng.From), To: sanitizeInput(rng.To)})
	NewJSONResponse().Body(ws.State()).Write(w)
}

func (s *Server) handleApplyFilter(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	view, err := s.service.ApplyFilter(ws)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	s.service.ClearFilter(ws)
	view, err := s.service.RecordView(ws)
	if err != nil {
		// no customer open: the filter is still cleared
		NewJSONResponse().Body(ws.State()).Write(w)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	var req struct {
		Currency string `json:"currency"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	cur, err := s.service.SetCurrency(ws, req.Currency)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(cur).Write(w)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	doc, err := s.service.ExportReport(r.Context(), ws)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Report download failed", applog.FieldError, err)
		ErrorFrom(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}
