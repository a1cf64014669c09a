package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ObjectID is a document identifier that may arrive either as a plain string
// or as an extended-JSON object of the form {"$oid": "..."}.
type ObjectID string

// UnmarshalJSON accepts both identifier encodings.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ObjectID(s)
		return nil
	}

	var ext struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &ext); err != nil {
		return err
	}
	*id = ObjectID(ext.OID)
	return nil
}

// String returns the identifier text.
func (id ObjectID) String() string {
	return string(id)
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeField parses a JSON time value given as an ISO string, a
// {"$date": ...} wrapper, or a Unix timestamp in seconds or milliseconds.
func parseTimeField(data json.RawMessage) time.Time {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, strVal); err == nil {
				return t
			}
		}
		return time.Time{}
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			return time.UnixMilli(int64(numVal))
		}
		return time.Unix(int64(numVal), 0)
	}

	var wrapped struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Date) > 0 {
		return parseTimeField(wrapped.Date)
	}

	return time.Time{}
}

// parseNumberField parses a JSON number that may also be encoded as a string.
func parseNumberField(data json.RawMessage) float64 {
	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		return numVal
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if f, err := strconv.ParseFloat(strVal, 64); err == nil {
			return f
		}
	}
	return 0
}
