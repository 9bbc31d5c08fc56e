package events

import (
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypeRecordsReloaded = "records_reloaded"
	TypeReloadFailed    = "reload_failed"
	TypeConfigUpdated   = "config_updated"
	TypeFilterApplied   = "filter_applied"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// ReloadData is the payload of records_reloaded and reload_failed.
type ReloadData struct {
	Count  int    `json:"count"`
	Origin string `json:"origin"`
	Error  string `json:"error,omitempty"`
}

// AppliedData is the payload of filter_applied.
type AppliedData struct {
	Session string `json:"session"`
	Picker  string `json:"picker"`
}
