// Package problem renders store errors as RFC 7807 problem details.
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/roach88/fakedb/internal/fakedb"
)

// Details is an RFC 7807 problem document.
//
// Extensions carries the error-specific members ("key" or "message") and is
// flattened into the top-level object when marshaled.
type Details struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Extensions map[string]any `json:"-"`
}

type template struct {
	typ       string
	title     string
	status    int
	extension string
}

// Statuses do not always match the type URI; both are part of the
// published error contract.
var templates = map[fakedb.ErrorCode]template{
	fakedb.ErrCodeConflict:    {"https://http.cat/409", "Conflict of keys", 500, "key"},
	fakedb.ErrCodeKeyNotFound: {"https://http.cat/404", "Value not found in storage", 500, "key"},
	fakedb.ErrCodeCardinality: {"https://http.cat/400", "Values have conflicting ids", 400, "key"},
	fakedb.ErrCodeLocking:     {"https://http.cat/500", "Error while locking value", 400, "message"},
}

// Codes lists the error codes with a registered problem template.
func Codes() []fakedb.ErrorCode {
	return []fakedb.ErrorCode{
		fakedb.ErrCodeConflict,
		fakedb.ErrCodeKeyNotFound,
		fakedb.ErrCodeCardinality,
		fakedb.ErrCodeLocking,
	}
}

// From converts err into problem details. Store errors (including wrapped
// ones) use their code's template; anything else is a generic 500.
func From(err error) Details {
	var se *fakedb.StoreError
	if !errors.As(err, &se) {
		return Details{
			Type:   "about:blank",
			Title:  "Internal error",
			Status: 500,
			Detail: err.Error(),
		}
	}

	d, ok := ForCode(se.Code)
	if !ok {
		return Details{Type: "about:blank", Title: string(se.Code), Status: 500, Detail: se.Error()}
	}
	d.Detail = se.Error()
	switch ext := templates[se.Code].extension; ext {
	case "key":
		d.Extensions[ext] = se.Key
	default:
		d.Extensions[ext] = se.Message
	}
	return d
}

// ForCode returns the template for code with placeholder extensions.
func ForCode(code fakedb.ErrorCode) (Details, bool) {
	t, ok := templates[code]
	if !ok {
		return Details{}, false
	}
	return Details{
		Type:       t.typ,
		Title:      t.title,
		Status:     t.status,
		Extensions: map[string]any{t.extension: "<" + t.extension + ">"},
	}, true
}

// MarshalJSON flattens Extensions next to the standard members.
func (d Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(d.Extensions))
	maps.Copy(out, d.Extensions)
	out["type"] = d.Type
	out["title"] = d.Title
	out["status"] = d.Status
	if d.Detail != "" {
		out["detail"] = d.Detail
	}
	return json.Marshal(out)
}

func (d Details) String() string {
	return fmt.Sprintf("%d %s (%s)", d.Status, d.Title, d.Type)
}
