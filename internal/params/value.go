package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elliotchance/orderedmap"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	Null Kind = iota
	String
	Number
	Bool
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return "null"
}

// Value is a configuration value of any JSON type. The zero Value is null.
// Numbers keep their decimal text so large integers survive unchanged.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []Value
	obj  *Object
}

func StringValue(s string) Value { return Value{kind: String, str: s} }
func NumberValue(n json.Number) Value { return Value{kind: Number, str: string(n)} }
func IntValue(n int64) Value { return Value{kind: Number, str: strconv.FormatInt(n, 10)} }
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }
func ListValue(items ...Value) Value { return Value{kind: List, list: items} }
func ObjectValue(o *Object) Value {
	if o == nil {
		return Value{}
	}
	return Value{kind: Map, obj: o}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }
func (v Value) IsScalar() bool { return v.kind != List && v.kind != Map }

// Str returns the string held by a String value.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == String
}

// Int64 returns the integer held by a Number value.
func (v Value) Int64() (int64, bool) {
	if v.kind != Number {
		return 0, false
	}
	n, err := strconv.ParseInt(v.str, 10, 64)
	return n, err == nil
}

// Bool returns the boolean held by a Bool value.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

// Items returns the elements of a List value.
func (v Value) Items() ([]Value, bool) {
	return v.list, v.kind == List
}

// Object returns the map held by a Map value.
func (v Value) Object() (*Object, bool) {
	return v.obj, v.kind == Map
}

// Equal compares values structurally. Map key order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case String, Number:
		return v.str == o.str
	case Bool:
		return v.b == o.b
	case List:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	if v.obj.Len() != o.obj.Len() {
		return false
	}
	for _, k := range v.obj.Keys() {
		ov, ok := o.obj.Get(k)
		if !ok {
			return false
		}
		vv, _ := v.obj.Get(k)
		if !vv.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the value, keeping map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case String:
		return json.Marshal(v.str)
	case Number:
		return []byte(v.str), nil
	case Bool:
		return json.Marshal(v.b)
	case List:
		items := v.list
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case Map:
		return v.obj.MarshalJSON()
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes any JSON document, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Object is a string-keyed map that remembers insertion order.
type Object struct {
	m *orderedmap.OrderedMap
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.NewOrderedMap()}
}

// Set adds or replaces a key. Replacing keeps the original position.
func (o *Object) Set(key string, v Value) {
	o.m.Set(key, v)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	raw, ok := o.m.Get(key)
	if !ok {
		return Value{}, false
	}
	return raw.(Value), true
}

// Delete removes a key.
func (o *Object) Delete(key string) {
	o.m.Delete(key)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	raw := o.m.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.m.Len()
}

// Without returns a copy of the object lacking the given keys.
func (o *Object) Without(keys ...string) *Object {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	out := NewObject()
	for _, k := range o.Keys() {
		if skip[k] {
			continue
		}
		v, _ := o.Get(k)
		out.Set(k, v)
	}
	return out
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, _ := o.Get(k)
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	obj, ok := v.Object()
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", v.Kind())
	}
	*o = *obj
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Value{}, nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ListValue(items...), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(obj), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}
