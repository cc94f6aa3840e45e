// Package jsonld extracts and traverses the structured-data islands
// (<script type="application/ld+json">) embedded in HTML pages.
//
// Parsed islands are represented as a closed set of Node variants: Object,
// Array, String, Number, Bool and Null. Objects keep their keys in document
// order so traversal, and anything selected by "first match", is
// deterministic.
package jsonld

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is one value in a structured-data graph
type Node interface {
	node()
}

// Object is a JSON object with keys kept in document order
type Object struct {
	fields *orderedmap.OrderedMap[string, Node]
}

// Array is a JSON array
type Array []Node

// String is a JSON string
type String string

// Number is a JSON number, kept in its literal form
type Number string

// Bool is a JSON boolean
type Bool bool

// Null is the JSON null literal
type Null struct{}

func (*Object) node() {}
func (Array) node()   {}
func (String) node()  {}
func (Number) node()  {}
func (Bool) node()    {}
func (Null) node()    {}

// NewObject returns an empty Object
func NewObject() *Object {
	return &Object{fields: orderedmap.New[string, Node]()}
}

// Set stores a field, keeping the position of an existing key
func (o *Object) Set(key string, value Node) {
	o.fields.Set(key, value)
}

// Get looks up a field
func (o *Object) Get(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	return o.fields.Get(key)
}

// Len returns the number of fields
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.fields.Len()
}

// Keys returns field names in document order
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	if o == nil {
		return keys
	}
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Values returns field values in document order
func (o *Object) Values() []Node {
	values := make([]Node, 0, o.Len())
	if o == nil {
		return values
	}
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// Text returns the trimmed string value of a field. Numbers are returned in
// their literal form; any other kind, or an empty string, reports false.
func (o *Object) Text(key string) (string, bool) {
	n, ok := o.Get(key)
	if !ok {
		return "", false
	}
	return AsString(n)
}

// Child returns a field holding an object
func (o *Object) Child(key string) (*Object, bool) {
	n, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := n.(*Object)
	return obj, ok
}

// List returns a field as a slice. A single value is wrapped; an absent
// field or null yields nil.
func (o *Object) List(key string) []Node {
	n, ok := o.Get(key)
	if !ok {
		return nil
	}
	switch v := n.(type) {
	case Array:
		return v
	case Null:
		return nil
	default:
		return []Node{v}
	}
}

// Types returns the @type tags of an object. The tag may be a single string
// or an array of strings.
func (o *Object) Types() []string {
	var types []string
	for _, n := range o.List("@type") {
		if s, ok := AsString(n); ok {
			types = append(types, s)
		}
	}
	return types
}

// HasTypeSuffix reports whether any @type tag ends with suffix, ignoring case.
// Matching by suffix tolerates vocabulary variants such as "SportsEvent" or
// "schema:Event".
func (o *Object) HasTypeSuffix(suffix string) bool {
	suffix = strings.ToLower(suffix)
	for _, t := range o.Types() {
		if strings.HasSuffix(strings.ToLower(t), suffix) {
			return true
		}
	}
	return false
}

// AsString returns the trimmed text of a String or Number node
func AsString(n Node) (string, bool) {
	var s string
	switch v := n.(type) {
	case String:
		s = string(v)
	case Number:
		s = string(v)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
