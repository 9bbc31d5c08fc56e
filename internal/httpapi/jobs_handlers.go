package httpapi

import (
	"net/http"
	"strconv"

	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/filter"
)

type JobsHandler struct {
	Data   *dataset.Dataset
	Engine func() *filter.Engine
}

type searchResponse struct {
	Count   int                `json:"count"`
	Total   int                `json:"total"`
	Records []domain.JobRecord `json:"records"`
	Reasons []filter.Verdict   `json:"reasons,omitempty"`
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	recs := h.Data.Records()
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		if n < len(recs) {
			recs = recs[:n]
		}
	}
	writeJSON(w, recs)
}

func (h JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := h.Data.Get(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "no record with id "+strconv.Quote(id))
		return
	}
	writeJSON(w, rec)
}

// Search filters the snapshot with the posted state. ?explain=1 adds the
// first failing criterion of every dropped record.
func (h JobsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var state domain.FilterState
	if err := decodeBody(r, &state); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := state.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}
	state = state.Normalize()

	eng := h.Engine()
	recs := h.Data.Records()
	out := eng.Filter(state, recs)
	resp := searchResponse{Count: len(out), Total: len(recs), Records: out}
	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		resp.Reasons = eng.ExplainAll(state, recs)
	}
	writeJSON(w, resp)
}
