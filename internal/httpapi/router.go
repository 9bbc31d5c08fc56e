package httpapi

import "net/http"

// NewMux returns the raw mux so main() can wrap it with middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Data: d.Data}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Records
	jh := JobsHandler{Data: d.Data, Engine: d.Engine}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Get,
	}))
	mux.HandleFunc("/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Search,
	}))

	// Picker options
	cat := CatalogHandler{Deps: d}
	mux.HandleFunc("/catalog", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cat.Catalog,
	}))
	mux.HandleFunc("/locations", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cat.Locations,
	}))

	rh := ReloadHandler{Data: d.Data, Hub: d.Hub}
	mux.HandleFunc("/reload", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		OnConfig:    d.OnConfig,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets
	sh := SecretsHandler{Set: d.SetToken, Delete: d.DeleteToken}
	mux.HandleFunc("/api/secrets/source-token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetSourceToken,
		http.MethodDelete: sh.DeleteSourceToken,
	}))

	// Form sessions
	ss := NewSessionsHandler(d.Sessions, d.Data, d.Hub)
	mux.HandleFunc("/sessions", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ss.Create,
	}))
	mux.HandleFunc("/sessions/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    ss.Get,
		http.MethodDelete: ss.Delete,
	}))
	mux.HandleFunc("/sessions/{id}/pickers/{picker}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ss.View,
	}))
	mux.HandleFunc("/sessions/{id}/pickers/{picker}/{action}", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ss.Picker,
	}))
	mux.HandleFunc("/sessions/{id}/keyword", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ss.Keyword,
	}))
	mux.HandleFunc("/sessions/{id}/clear/{picker}", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ss.ClearCategory,
	}))
	mux.HandleFunc("/sessions/{id}/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ss.Search,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
