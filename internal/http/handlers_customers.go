package http

import (
	"net/http"

	"ledger/internal/core"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"customers": s.service.Customers()}).Write(w)
}

// handleSaveCustomer adds a customer, or updates the one in edit mode.
func (s *Server) handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())

	var in core.CustomerInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	_, editing := ws.Editing()

	c, err := s.service.SaveCustomer(r.Context(), ws, sanitizeCustomer(in))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	NewJSONResponse().Status(status).Body(c).Write(w)
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.service.StartEdit(ws, id)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	s.service.CancelEdit(ws)
	NewJSONResponse().Body(ws.State()).Write(w)
}

func (s *Server) handleSelectCustomer(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.service.Select(ws, id); err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	view, err := s.service.RecordView(ws)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	s.service.Back(ws)
	NewJSONResponse().Body(ws.State()).Write(w)
}

// handleDeleteCustomer only asks for confirmation; see handleConfirm.
func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	_, ws := sessionFrom(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	pending, err := s.service.RequestDeleteCustomer(ws, id)
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(pending).Write(w)
}
