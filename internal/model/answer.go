package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Answer is either a single text value or an ordered list of values.
// It encodes as a JSON string or array (and the BSON equivalents).
type Answer struct {
	values []string
	multi  bool
}

// Single returns a single-value answer.
func Single(s string) Answer {
	return Answer{values: []string{s}}
}

// Multi returns a list answer. Order is significant.
func Multi(values ...string) Answer {
	v := make([]string, len(values))
	copy(v, values)
	return Answer{values: v, multi: true}
}

// IsMulti reports whether the answer is a list.
func (a Answer) IsMulti() bool { return a.multi }

// Text returns the single value, or "" for a list or an empty answer.
func (a Answer) Text() string {
	if a.multi || len(a.values) == 0 {
		return ""
	}
	return a.values[0]
}

// Values returns a copy of the list entries. A single answer yields one entry.
func (a Answer) Values() []string {
	v := make([]string, len(a.values))
	copy(v, a.values)
	return v
}

// IsEmpty reports whether the answer carries no non-blank text.
func (a Answer) IsEmpty() bool {
	for _, v := range a.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (a Answer) String() string {
	if a.multi {
		return "[" + strings.Join(a.values, ", ") + "]"
	}
	return a.Text()
}

// MarshalJSON implements json.Marshaler.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multi {
		return json.Marshal(a.Values())
	}
	return json.Marshal(a.Text())
}

// UnmarshalJSON accepts a string, a number, a bool, null, or an array of those.
func (a *Answer) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = Answer{}
	case []any:
		vals := make([]string, 0, len(v))
		for i, item := range v {
			s, err := scalarText(item)
			if err != nil {
				return fmt.Errorf("answer element %d: %w", i, err)
			}
			vals = append(vals, s)
		}
		*a = Answer{values: vals, multi: true}
	default:
		s, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		*a = Single(s)
	}
	return nil
}

func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (a Answer) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if a.multi {
		return bson.MarshalValue(a.Values())
	}
	return bson.MarshalValue(a.Text())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (a *Answer) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*a = Answer{}
	case bson.TypeString:
		*a = Single(rv.StringValue())
	case bson.TypeArray:
		var vals []string
		if err := rv.Unmarshal(&vals); err != nil {
			return fmt.Errorf("answer array: %w", err)
		}
		if vals == nil {
			vals = []string{}
		}
		*a = Answer{values: vals, multi: true}
	default:
		return fmt.Errorf("answer: unsupported bson type %s", t)
	}
	return nil
}
