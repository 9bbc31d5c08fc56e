package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/form"
	"jobsearch-engine/internal/session"
)

// SessionsHandler drives the search form of one client per session.
type SessionsHandler struct {
	Sessions  *session.Store
	Data      *dataset.Dataset
	Hub       *events.Hub
	validator *validator.Validate
}

func NewSessionsHandler(sessions *session.Store, data *dataset.Dataset, hub *events.Hub) SessionsHandler {
	return SessionsHandler{Sessions: sessions, Data: data, Hub: hub, validator: validator.New()}
}

type sessionResponse struct {
	ID         string             `json:"id"`
	Phase      string             `json:"phase"`
	OpenPicker form.Picker        `json:"openPicker,omitempty"`
	Committed  domain.FilterState `json:"committed"`
	Summary    form.Summary       `json:"summary"`
	LastCount  int                `json:"lastCount"`
	Pickers    []form.Picker      `json:"pickers"`
}

func describe(id string, f *form.Form) sessionResponse {
	return sessionResponse{
		ID:         id,
		Phase:      f.Phase().String(),
		OpenPicker: f.OpenPicker(),
		Committed:  f.Committed(),
		Summary:    f.Summary(),
		LastCount:  f.LastCount(),
		Pickers:    form.Pickers(),
	}
}

type toggleReq struct {
	Path    *domain.LocationPath `json:"path"`
	Value   string               `json:"value" validate:"max=200"`
	Checked bool                 `json:"checked"`
	Income  *int                 `json:"income" validate:"omitempty,min=0"`
}

type keywordReq struct {
	Keyword string `json:"keyword" validate:"max=200"`
}

func (h SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Create()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var resp sessionResponse
	_ = s.Do(func(f *form.Form) error {
		resp = describe(s.ID, f)
		return nil
	})
	WriteJSON(w, http.StatusCreated, resp)
}

func (h SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(id string, f *form.Form) (any, error) {
		return describe(id, f), nil
	})
}

func (h SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(r.PathValue("id")) {
		writeFailure(w, r, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// View returns the working copy of the named picker, which must be open.
func (h SessionsHandler) View(w http.ResponseWriter, r *http.Request) {
	p, err := form.ParsePicker(r.PathValue("picker"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.withForm(w, r, func(_ string, f *form.Form) (any, error) {
		if err := ensureOpen(f, p); err != nil {
			return nil, err
		}
		return f.View()
	})
}

// Picker runs one lifecycle action (open, toggle, clear, apply, close) on
// the named picker.
func (h SessionsHandler) Picker(w http.ResponseWriter, r *http.Request) {
	p, err := form.ParsePicker(r.PathValue("picker"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	action := r.PathValue("action")

	var req toggleReq
	if action == "toggle" {
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if err := h.validator.Struct(req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_request", validationMessage(err))
			return
		}
	}

	applied := false
	h.withForm(w, r, func(id string, f *form.Form) (any, error) {
		switch action {
		case "open":
			if err := f.Open(p); err != nil {
				return nil, err
			}
			return f.View()
		case "toggle":
			if err := ensureOpen(f, p); err != nil {
				return nil, err
			}
			if err := toggle(f, p, req); err != nil {
				return nil, err
			}
			return f.View()
		case "clear":
			if err := ensureOpen(f, p); err != nil {
				return nil, err
			}
			if err := f.Clear(); err != nil {
				return nil, err
			}
			return f.View()
		case "apply":
			if err := ensureOpen(f, p); err != nil {
				return nil, err
			}
			if _, err := f.Apply(); err != nil {
				return nil, err
			}
			applied = true
			return describe(id, f), nil
		case "close":
			if open := f.OpenPicker(); open != "" && open != p {
				return nil, fmt.Errorf("%w: open %s", form.ErrWrongPicker, open)
			}
			f.Close()
			return describe(id, f), nil
		default:
			return nil, fmt.Errorf("%w: action %q", form.ErrUnknownPicker, action)
		}
	})
	if applied {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeFilterApplied, 1,
			events.AppliedData{Session: r.PathValue("id"), Picker: string(p)}))
	}
}

func toggle(f *form.Form, p form.Picker, req toggleReq) error {
	switch p {
	case form.PickerLocation:
		if req.Path == nil {
			return fmt.Errorf("%w: path is required", form.ErrInvalidValue)
		}
		return f.ToggleLocation(*req.Path, req.Checked)
	case form.PickerIncome:
		if !req.Checked {
			return f.SetIncome(nil)
		}
		if req.Income == nil {
			return fmt.Errorf("%w: income is required", form.ErrInvalidValue)
		}
		return f.SetIncome(req.Income)
	default:
		return f.Toggle(req.Value, req.Checked)
	}
}

func ensureOpen(f *form.Form, p form.Picker) error {
	switch open := f.OpenPicker(); {
	case open == "":
		return form.ErrNoPicker
	case open != p:
		return fmt.Errorf("%w: open %s", form.ErrWrongPicker, open)
	}
	return nil
}

func (h SessionsHandler) Keyword(w http.ResponseWriter, r *http.Request) {
	var req keywordReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}
	h.withForm(w, r, func(id string, f *form.Form) (any, error) {
		f.SetKeyword(req.Keyword)
		return describe(id, f), nil
	})
}

// ClearCategory resets one committed criterion; "keyword" is accepted
// alongside the picker names.
func (h SessionsHandler) ClearCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("picker")
	p := form.PickerKeyword
	if name != string(form.PickerKeyword) {
		var err error
		if p, err = form.ParsePicker(name); err != nil {
			writeFailure(w, r, err)
			return
		}
	}
	h.withForm(w, r, func(id string, f *form.Form) (any, error) {
		if err := f.ClearCategory(p); err != nil {
			return nil, err
		}
		return describe(id, f), nil
	})
}

func (h SessionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	recs := h.Data.Records()
	h.withForm(w, r, func(_ string, f *form.Form) (any, error) {
		out := f.Search(recs)
		return searchResponse{Count: len(out), Total: len(recs), Records: out}, nil
	})
}

// withForm resolves the session and runs fn under its lock.
func (h SessionsHandler) withForm(w http.ResponseWriter, r *http.Request, fn func(id string, f *form.Form) (any, error)) {
	s, err := h.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var out any
	err = s.Do(func(f *form.Form) error {
		var ferr error
		out, ferr = fn(s.ID, f)
		return ferr
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, out)
}
