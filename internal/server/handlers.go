package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/plume/internal/domain"
	"github.com/tjfontaine/plume/internal/service"
)

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	call := service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodFind,
		Transport: TransportREST,
	}

	query := r.URL.Query()
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, r, domain.ErrBadRequest("limit must be a non-negative integer").WithField("limit"))
			return
		}
		call.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			s.writeError(w, r, domain.ErrBadRequest("offset must be a non-negative integer").WithField("offset"))
			return
		}
		call.Offset = offset
	}

	// Any other query parameter is an equality filter on a data field
	filter := make(map[string]string)
	for key, values := range query {
		if key == "limit" || key == "offset" {
			continue
		}
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}
	if len(filter) > 0 {
		call.Filter = filter
	}

	s.dispatch(w, r, call, http.StatusOK)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodGet,
		Transport: TransportREST,
		ID:        chi.URLParam(r, "id"),
	}, http.StatusOK)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.dispatch(w, r, service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodCreate,
		Transport: TransportREST,
		Data:      data,
	}, http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.dispatch(w, r, service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodUpdate,
		Transport: TransportREST,
		ID:        chi.URLParam(r, "id"),
		Data:      data,
	}, http.StatusOK)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.dispatch(w, r, service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodPatch,
		Transport: TransportREST,
		ID:        chi.URLParam(r, "id"),
		Data:      data,
	}, http.StatusOK)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, service.Call{
		Path:      chi.URLParam(r, "service"),
		Method:    service.MethodRemove,
		Transport: TransportREST,
		ID:        chi.URLParam(r, "id"),
	}, http.StatusOK)
}

// dispatch runs the call and writes the final Result, or the translated
// error.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, call service.Call, status int) {
	AddLogField(r.Context(), "service", call.Path)
	AddLogField(r.Context(), "service_method", string(call.Method))

	c, err := s.dispatcher.Call(r.Context(), call)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, status, c.Result)
}

func decodeBody(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, domain.ErrBadRequest("invalid request body: " + err.Error())
	}
	return data, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
