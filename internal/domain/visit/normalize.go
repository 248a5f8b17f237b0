package visit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key aliases seen in records imported from older clinic software. Imports
// arrive as loose JSON objects; Normalize maps whichever spelling is present
// onto the canonical column.
var (
	visitIDKeys = []string{"visit_id", "visitId", "vid", "id"}
	anchorKeys  = []string{"anchor_visit_id", "anchorVisitId", "anchor_id", "parent_visit_id"}
	tagKeys     = []string{"tag", "visit_type", "visitType", "type"}
	opdKeys     = []string{"opd_number", "opd_no", "opdNo", "opd"}
	dateKeys    = []string{"visit_date", "visitDate", "date"}
	reasonKeys  = []string{"reason", "chief_complaint", "chiefComplaint", "complaint"}
	createdKeys = []string{"created_at", "createdAt", "created"}
	updatedKeys = []string{"updated_at", "updatedAt", "modified_at"}
	doctorKeys  = []string{"doctor_name", "doctorName", "doctor"}
	notesKeys   = []string{"notes", "advice", "remarks"}
)

// Normalize converts a raw imported record into a Visit. It tolerates the key
// and value spellings of every source system we import from; the only hard
// requirement is a visit identifier.
func Normalize(raw map[string]interface{}) (*Visit, error) {
	v := &Visit{}

	v.VisitID = strings.TrimSpace(stringAt(raw, visitIDKeys))
	if v.VisitID == "" {
		return nil, fmt.Errorf("record has no visit identifier")
	}

	if anchor := strings.TrimSpace(stringAt(raw, anchorKeys)); anchor != "" {
		v.AnchorVisitID = &anchor
	}

	v.Tag = normalizeTag(stringAt(raw, tagKeys))
	if v.Tag == TagFollowUp && v.AnchorVisitID == nil {
		// A follow-up without an anchor cannot chain; keep the record but
		// demote it so it renders standalone.
		v.Tag = TagNew
	}

	if opd := strings.TrimSpace(stringAt(raw, opdKeys)); opd != "" {
		v.OPDNumber = &opd
	}
	if reason := strings.TrimSpace(stringAt(raw, reasonKeys)); reason != "" {
		v.Reason = &reason
	}
	if doctor := strings.TrimSpace(stringAt(raw, doctorKeys)); doctor != "" {
		v.DoctorName = &doctor
	}
	if notes := strings.TrimSpace(stringAt(raw, notesKeys)); notes != "" {
		v.Notes = &notes
	}

	if t, ok := timeAt(raw, dateKeys); ok {
		v.VisitDate = t
	}
	if ms, ok := millisAt(raw, createdKeys); ok {
		v.CreatedAt = ms
	} else if !v.VisitDate.IsZero() {
		v.CreatedAt = v.VisitDate.UnixMilli()
	}
	if ms, ok := millisAt(raw, updatedKeys); ok {
		v.UpdatedAt = &ms
	}

	return v, nil
}

func normalizeTag(s string) string {
	switch strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "-", ""), "_", "")) {
	case "FOLLOWUP", "FU":
		return TagFollowUp
	default:
		return TagNew
	}
}

func stringAt(raw map[string]interface{}, keys []string) string {
	for _, k := range keys {
		switch val := raw[k].(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

// millisAt coerces a timestamp field into unix milliseconds. Sources disagree
// on representation: some store millis, some seconds, some RFC 3339 strings.
func millisAt(raw map[string]interface{}, keys []string) (int64, bool) {
	for _, k := range keys {
		switch val := raw[k].(type) {
		case float64:
			n := int64(val)
			if n <= 0 {
				continue
			}
			// Values before ~2001 in millis are really seconds.
			if n < 1e12 {
				n *= 1000
			}
			return n, true
		case string:
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				return t.UnixMilli(), true
			}
			if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
				if n < 1e12 {
					n *= 1000
				}
				return n, true
			}
		}
	}
	return 0, false
}

func timeAt(raw map[string]interface{}, keys []string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := raw[k].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
