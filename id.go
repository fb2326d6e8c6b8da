package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// idKind discriminates the three shapes a JSON-RPC 2.0 id may take.
type idKind uint8

const (
	idKindNull idKind = iota
	idKindNumber
	idKindText
)

// Id is the JSON-RPC correlation identifier: a number, a string, or null.
// Per the JSON-RPC 2.0 spec, numeric ids SHOULD NOT carry a fractional
// part; this implementation additionally requires ids to fit in a u64,
// matching the reference implementation this package is modeled on (see
// Open Questions in DESIGN.md). Id is comparable and safe to use as a
// map key.
type Id struct {
	kind idKind
	num  uint64
	text string
}

// NullId is the JSON `null` id.
var NullId = Id{kind: idKindNull}

// NumberId builds a numeric Id.
func NumberId(n uint64) Id {
	return Id{kind: idKindNumber, num: n}
}

// TextId builds a string Id.
func TextId(s string) Id {
	return Id{kind: idKindText, text: s}
}

// IsNull reports whether the id is JSON null.
func (id Id) IsNull() bool { return id.kind == idKindNull }

// Number returns the numeric value and true if the id is a number.
func (id Id) Number() (uint64, bool) {
	return id.num, id.kind == idKindNumber
}

// Text returns the string value and true if the id is a string.
func (id Id) Text() (string, bool) {
	return id.text, id.kind == idKindText
}

func (id Id) String() string {
	switch id.kind {
	case idKindNumber:
		return fmt.Sprintf("%d", id.num)
	case idKindText:
		return id.text
	default:
		return "null"
	}
}

// MarshalJSON encodes the id as a JSON number, string, or null.
func (id Id) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idKindNumber:
		return json.Marshal(id.num)
	case idKindText:
		return json.Marshal(id.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON number, string, or null into an Id.
// Any other JSON shape, or a negative/fractional number, is rejected —
// faithful to the "only supports u64 numbers" constraint of the
// reference implementation this package generalizes.
func (id *Id) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case nil:
		*id = NullId
	case string:
		*id = TextId(v)
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("\"id\" is not a valid u64 number: %s", data)
		}
		*id = NumberId(n)
	default:
		return fmt.Errorf("\"id\" is not a valid type: %s", data)
	}
	return nil
}
