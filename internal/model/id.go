package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// LocalPrefix marks identifiers generated by the gateway before a server
// cart exists.
const LocalPrefix = "local-"

var ErrInvalidID = errors.New("identifier must be a JSON string or number")

// ID is the canonical identifier used for users, carts, cart items and food
// items. The backend sends some identifiers as numbers and some as strings;
// both decode to the same string form so comparisons are plain equality.
type ID string

// NewLocalID returns a fresh local-only identifier.
func NewLocalID() ID {
	return ID(LocalPrefix + uuid.New().String())
}

// IsLocal reports whether the identifier was generated locally and has never
// been acknowledged by the backend.
func (id ID) IsLocal() bool {
	return strings.HasPrefix(string(id), LocalPrefix)
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts "abc", 123 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrInvalidID
		}
		*id = ID(n.String())
		return nil
	}
}
