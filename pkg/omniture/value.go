package omniture

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Value is a named API record. Every field of the source record stays
// reachable through Field.
type Value struct {
	title  string
	id     string
	fields gjson.Result
}

// NewValue creates a Value with the given title and id. fields may be the
// zero gjson.Result when the value carries nothing else.
func NewValue(title, id string, fields gjson.Result) *Value {
	return &Value{title: title, id: id, fields: fields}
}

// NewValueList wraps every record of a JSON array as a Value, reading its
// title and id from the named fields.
func NewValueList(name string, items gjson.Result, titleField, idField string) *Collection[*Value] {
	var values []*Value
	items.ForEach(func(_, item gjson.Result) bool {
		values = append(values, NewValue(item.Get(titleField).String(), item.Get(idField).String(), item))
		return true
	})
	return NewCollection(name, values)
}

// Title returns the display name.
func (v *Value) Title() string { return v.title }

// ID returns the API identifier.
func (v *Value) ID() string { return v.id }

// Field returns a field of the source record.
func (v *Value) Field(name string) gjson.Result {
	return v.fields.Get(name)
}

// Raw returns the source record.
func (v *Value) Raw() gjson.Result { return v.fields }

func (v *Value) String() string {
	return fmt.Sprintf("<%s: %s>", v.title, v.id)
}
