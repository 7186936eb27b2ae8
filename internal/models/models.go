// Package models defines the core data structures used throughout the application.
package models

import "encoding/json"

// User represents a registered account. The password hash lives in the
// storage layer only and is never part of the API surface.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Dog represents an owned resource. Beyond the reserved id and owner
// fields, callers may attach arbitrary fields which round-trip through the
// store untouched.
type Dog struct {
	ID     int64
	Owner  int64
	Fields map[string]any
}

// dogReservedKeys are managed by the server and stripped from caller input.
var dogReservedKeys = map[string]bool{"id": true, "owner": true}

// MarshalJSON flattens Fields next to id and owner.
func (d Dog) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+2)
	for k, v := range d.Fields {
		if dogReservedKeys[k] {
			continue
		}
		out[k] = v
	}
	out["id"] = d.ID
	out["owner"] = d.Owner
	return json.Marshal(out)
}

// UnmarshalJSON collects unknown top-level keys into Fields.
func (d *Dog) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["id"].(float64); ok {
		d.ID = int64(v)
	}
	if v, ok := raw["owner"].(float64); ok {
		d.Owner = int64(v)
	}
	d.Fields = make(map[string]any, len(raw))
	for k, v := range raw {
		if dogReservedKeys[k] {
			continue
		}
		d.Fields[k] = v
	}
	return nil
}

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey ContextKey = "user"
)
