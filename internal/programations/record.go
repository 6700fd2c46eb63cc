// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package programations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ManuGH/onair/internal/schedule"
)

// Record is a programation as served by the CMS.
type Record struct {
	ID             int    `json:"id"`
	DocumentID     string `json:"documentId"`
	Title          string `json:"title"`
	ActiveDays     string `json:"dias_EnEmision"`
	StartTime      string `json:"horario_emision_inicio"`
	EndTime        string `json:"horario_emision_fin"`
	CurrentProgram Flag   `json:"currentProgram"`

	// DecodeErr is set when the entry could not be decoded. Only the
	// identity fields are populated then.
	DecodeErr error `json:"-"`
}

// Key is the identifier used in update URLs.
func (r Record) Key() string {
	if r.DocumentID != "" {
		return r.DocumentID
	}
	if r.ID != 0 {
		return strconv.Itoa(r.ID)
	}
	return ""
}

// Program converts the wire record into the evaluator's model.
func (r Record) Program() schedule.Program {
	return schedule.Program{
		ID:         r.Key(),
		Title:      r.Title,
		ActiveDays: r.ActiveDays,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Active:     bool(r.CurrentProgram),
	}
}

// Programs converts a page of records, setting aside those that failed to
// decode.
func Programs(records []Record) (programs []schedule.Program, undecodable []Record) {
	programs = make([]schedule.Program, 0, len(records))
	for _, r := range records {
		if r.DecodeErr != nil {
			undecodable = append(undecodable, r)
			continue
		}
		programs = append(programs, r.Program())
	}
	return programs, undecodable
}

// Flag is the on-air flag. The CMS stores it as 0/1 but older entries carry
// booleans, strings or null.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `""`:
		*f = false
		return nil
	case "true", "1", `"1"`, `"true"`:
		*f = true
		return nil
	case "false", "0", `"0"`, `"false"`:
		*f = false
		return nil
	}
	return fmt.Errorf("programations: invalid currentProgram value %s", data)
}

// MarshalJSON writes the flag in the CMS's 0/1 form.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// recordIdentity is decoded leniently from entries that fail to decode as a
// Record so they can still be named in logs.
type recordIdentity struct {
	ID         any `json:"id"`
	DocumentID any `json:"documentId"`
	Title      any `json:"title"`
}

// decodeRecords decodes each entry on its own; a malformed entry yields a
// Record with DecodeErr set instead of failing the page.
func decodeRecords(raw []json.RawMessage) []Record {
	out := make([]Record, 0, len(raw))
	for _, entry := range raw {
		var r Record
		if err := json.Unmarshal(entry, &r); err != nil {
			var ident recordIdentity
			_ = json.Unmarshal(entry, &ident)
			r = Record{DecodeErr: fmt.Errorf("decode programation: %w", err)}
			if n, ok := ident.ID.(float64); ok {
				r.ID = int(n)
			}
			r.DocumentID, _ = ident.DocumentID.(string)
			r.Title, _ = ident.Title.(string)
		}
		out = append(out, r)
	}
	return out
}

type listResponse struct {
	Data []json.RawMessage `json:"data"`
	Meta *struct {
		Pagination *struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			PageCount int `json:"pageCount"`
			Total     int `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

type updateRequest struct {
	Data struct {
		CurrentProgram Flag `json:"currentProgram"`
	} `json:"data"`
}
