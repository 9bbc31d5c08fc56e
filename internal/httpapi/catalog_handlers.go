package httpapi

import (
	"net/http"

	"jobsearch-engine/internal/catalog"
)

type CatalogHandler struct {
	Deps Deps
}

func (h CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, catalog.Build(h.Deps.RefTree, h.Deps.Data.Records(), h.Deps.fixed()))
}

func (h CatalogHandler) Locations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, catalog.Locations(h.Deps.Tree()))
}
