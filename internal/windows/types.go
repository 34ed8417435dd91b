package windows

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Window mirrors a record returned by /api/windows.
type Window struct {
	ID             string         `json:"_id"`
	Hash           string         `json:"hash"`
	IsDuplicate    bool           `json:"isDuplicate"`
	ImageURL       string         `json:"imageUrl"`
	CreatedAt      int64          `json:"createdAt"`
	Description    string         `json:"description,omitempty"`
	StructuredData StructuredData `json:"structured_data"`
}

// UnmarshalJSON accepts "id" as an alias for "_id"; older API builds used it.
func (w *Window) UnmarshalJSON(data []byte) error {
	type plain Window
	var raw struct {
		plain
		LegacyID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = Window(raw.plain)
	if w.ID == "" {
		w.ID = raw.LegacyID
	}
	return nil
}

// Created returns the upload time.
func (w Window) Created() time.Time {
	if w.CreatedAt <= 0 {
		return time.Time{}
	}
	return time.Unix(w.CreatedAt, 0)
}

// ShortID returns the first eight characters of the record ID.
func (w Window) ShortID() string {
	if len(w.ID) <= 8 {
		return w.ID
	}
	return w.ID[:8]
}

// StructuredData holds the AI-derived facet values of a window.
type StructuredData struct {
	Daytime   Value `json:"daytime,omitempty"`
	Location  Value `json:"location,omitempty"`
	Type      Value `json:"type,omitempty"`
	Material  Value `json:"material,omitempty"`
	Panes     Value `json:"panes,omitempty"`
	Covering  Value `json:"covering,omitempty"`
	OpenState Value `json:"openState,omitempty"`
}

// Field is one named entry of StructuredData.
type Field struct {
	Key   string
	Value string
}

// Fields returns the entries in API order, including empty ones.
func (d StructuredData) Fields() []Field {
	return []Field{
		{"daytime", string(d.Daytime)},
		{"location", string(d.Location)},
		{"type", string(d.Type)},
		{"material", string(d.Material)},
		{"panes", string(d.Panes)},
		{"covering", string(d.Covering)},
		{"openState", string(d.OpenState)},
	}
}

// Get returns the value stored under the API key name.
func (d StructuredData) Get(key string) string {
	for _, f := range d.Fields() {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// IsEmpty reports whether no field carries a value.
func (d StructuredData) IsEmpty() bool {
	for _, f := range d.Fields() {
		if f.Value != "" {
			return false
		}
	}
	return true
}

// Value is a structured-data field. The analyzer sometimes emits numbers
// (panes: 2) where strings are expected, so both decode to their text form.
type Value string

// UnmarshalJSON decodes strings, numbers, booleans and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Value(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*v = Value(strconv.FormatBool(b))
	return nil
}

// ListResponse mirrors the paginated payload of GET /api/windows.
type ListResponse struct {
	Data       []Window `json:"data"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// HealthResponse mirrors /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// OK reports whether the API declared itself healthy.
func (h HealthResponse) OK() bool {
	return h.Status == "ok"
}
