package httpapi

import (
	"context"
	"net/http"

	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/events"
)

type ReloadHandler struct {
	Data *dataset.Dataset
	Hub  *events.Hub
}

// Refresh reloads the dataset and publishes the outcome. The scheduler
// calls it with an empty request id.
func (h ReloadHandler) Refresh(ctx context.Context, reqID string) (dataset.Status, error) {
	snap, err := h.Data.Reload(ctx)
	data := events.ReloadData{Count: len(snap.Records), Origin: snap.Origin}
	if err != nil {
		data.Error = err.Error()
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeReloadFailed, 1, data))
		return h.Data.Status(), err
	}
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeRecordsReloaded, 1, data))
	return h.Data.Status(), nil
}

// Run serves POST /reload. A failed fetch still answers 200 with the
// status, since the previous snapshot keeps serving.
func (h ReloadHandler) Run(w http.ResponseWriter, r *http.Request) {
	st, err := h.Refresh(r.Context(), RequestIDFrom(r.Context()))
	writeJSON(w, map[string]any{"ok": err == nil, "status": st})
}
