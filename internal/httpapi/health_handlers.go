package httpapi

import (
	"net/http"

	"jobsearch-engine/internal/dataset"
)

type HealthHandler struct {
	Data *dataset.Dataset
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.Data.Status()
	writeJSON(w, map[string]any{
		"ok":         true,
		"records":    st.Count,
		"origin":     st.Origin,
		"loaded_at":  st.LoadedAt,
		"last_error": st.LastError,
	})
}
