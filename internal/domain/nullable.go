package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NullableUUID distinguishes an absent field from an explicit null. An empty string
// is treated as null, which is what an unselected form control submits.
type NullableUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" || string(data) == `""` {
		n.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

func SetUUID(id uuid.UUID) NullableUUID {
	return NullableUUID{Value: &id, Set: true}
}

// NullableTime accepts RFC 3339 timestamps and plain dates (2006-01-02, read as UTC
// midnight). An empty string is null.
type NullableTime struct {
	Value *time.Time
	Set   bool
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		n.Value = nil
		return nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return err
	}
	n.Value = &t
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, dateLayout}

const dateLayout = "2006-01-02"

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected %s or RFC 3339", raw, dateLayout)
}

func SetTime(t time.Time) NullableTime {
	return NullableTime{Value: &t, Set: true}
}
