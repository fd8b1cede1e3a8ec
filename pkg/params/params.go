// Package params models the algorithm parameter schemas served by the
// AutoModeler backend.
//
// The backend describes each configurable parameter with a loosely typed
// object such as:
//
//	{"type": "number", "default": 100, "min": 1, "max": 1000, "step": 1}
//
// This package turns those objects into a closed set of descriptor types
// (Number, Select, Boolean, Text). Every descriptor knows its default and
// how to coerce raw user input, so callers never branch on a type string.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Descriptor.
type Kind string

// Descriptor kinds.
const (
	KindNumber  Kind = "number"
	KindSelect  Kind = "select"
	KindBoolean Kind = "boolean"
	KindText    Kind = "text"
)

// Descriptor describes one configurable algorithm parameter.
type Descriptor interface {
	// Kind returns the descriptor variant.
	Kind() Kind

	// DefaultValue returns the server-side default in its coerced Go form.
	DefaultValue() any

	// Coerce converts raw user input into the value transmitted to the backend.
	Coerce(raw string) (any, error)
}

// Number is a numeric parameter. Min, Max and Step are optional.
type Number struct {
	Default float64
	Min     *float64
	Max     *float64
	Step    *float64
}

// Kind implements Descriptor.
func (Number) Kind() Kind { return KindNumber }

// DefaultValue implements Descriptor.
func (n Number) DefaultValue() any { return n.Default }

// Coerce parses raw as a float and checks it against the bounds.
func (n Number) Coerce(raw string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, &CoerceError{Kind: KindNumber, Raw: raw, Reason: "not a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &CoerceError{Kind: KindNumber, Raw: raw, Reason: "not a finite number"}
	}
	if n.Min != nil && v < *n.Min {
		return nil, &CoerceError{Kind: KindNumber, Raw: raw, Reason: fmt.Sprintf("below minimum %g", *n.Min)}
	}
	if n.Max != nil && v > *n.Max {
		return nil, &CoerceError{Kind: KindNumber, Raw: raw, Reason: fmt.Sprintf("above maximum %g", *n.Max)}
	}
	return v, nil
}

// Select is a parameter restricted to a fixed set of options.
type Select struct {
	Default string
	Options []string
}

// Kind implements Descriptor.
func (Select) Kind() Kind { return KindSelect }

// DefaultValue implements Descriptor.
func (s Select) DefaultValue() any { return s.Default }

// Coerce accepts raw only if it is one of the options.
func (s Select) Coerce(raw string) (any, error) {
	for _, opt := range s.Options {
		if raw == opt {
			return raw, nil
		}
	}
	return nil, &CoerceError{
		Kind:   KindSelect,
		Raw:    raw,
		Reason: "must be one of " + strings.Join(s.Options, ", "),
	}
}

// Boolean is a true/false parameter.
type Boolean struct {
	Default bool
}

// Kind implements Descriptor.
func (Boolean) Kind() Kind { return KindBoolean }

// DefaultValue implements Descriptor.
func (b Boolean) DefaultValue() any { return b.Default }

// Coerce accepts only the literals "true" and "false".
func (Boolean) Coerce(raw string) (any, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, &CoerceError{Kind: KindBoolean, Raw: raw, Reason: `must be "true" or "false"`}
}

// Text is a free-form parameter. Values pass through unchanged.
type Text struct {
	Default string
}

// Kind implements Descriptor.
func (Text) Kind() Kind { return KindText }

// DefaultValue implements Descriptor.
func (t Text) DefaultValue() any { return t.Default }

// Coerce returns raw as is.
func (Text) Coerce(raw string) (any, error) { return raw, nil }

// Ensure all variants implement Descriptor.
var (
	_ Descriptor = Number{}
	_ Descriptor = Select{}
	_ Descriptor = Boolean{}
	_ Descriptor = Text{}
)

// CoerceError reports raw input a descriptor rejected.
type CoerceError struct {
	Kind   Kind
	Raw    string
	Reason string
}

// Error implements the error interface.
func (e *CoerceError) Error() string {
	return fmt.Sprintf("params: invalid %s value %q: %s", e.Kind, e.Raw, e.Reason)
}

// Schema maps parameter names to descriptors.
type Schema map[string]Descriptor

// Names returns the parameter names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// rawDescriptor is the wire shape of one schema entry.
type rawDescriptor struct {
	Type    string          `json:"type"`
	Default json.RawMessage `json:"default"`
	Options []any           `json:"options"`
	Min     *float64        `json:"min"`
	Max     *float64        `json:"max"`
	Step    *float64        `json:"step"`
}

// UnmarshalJSON decodes the backend's {name: {type, default, ...}} object.
// It also accepts the introspected form, a list of
// "name (valeur par défaut: value)" strings, inferring each kind from the
// default.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		return s.unmarshalList(data)
	}
	var raw map[string]rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("params: failed to decode schema: %w", err)
	}
	out := make(Schema, len(raw))
	for name, r := range raw {
		out[name] = r.descriptor()
	}
	*s = out
	return nil
}

func (s *Schema) unmarshalList(data []byte) error {
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("params: failed to decode schema list: %w", err)
	}
	out := make(Schema, len(entries))
	for _, e := range entries {
		name, def, ok := splitDefaultEntry(e)
		if !ok {
			continue
		}
		out[name] = inferDescriptor(def)
	}
	*s = out
	return nil
}

const defaultMarker = "(valeur par défaut:"

// splitDefaultEntry splits "n_estimators (valeur par défaut: 100)".
func splitDefaultEntry(entry string) (name, def string, ok bool) {
	i := strings.Index(entry, defaultMarker)
	if i < 0 {
		name = strings.TrimSpace(entry)
		return name, "", name != ""
	}
	name = strings.TrimSpace(entry[:i])
	def = strings.TrimSpace(entry[i+len(defaultMarker):])
	def = strings.TrimSpace(strings.TrimSuffix(def, ")"))
	return name, def, name != ""
}

// inferDescriptor picks a variant from a Python-style default literal.
func inferDescriptor(def string) Descriptor {
	switch def {
	case "True":
		return Boolean{Default: true}
	case "False":
		return Boolean{Default: false}
	case "None", "":
		return Text{}
	}
	if f, err := strconv.ParseFloat(def, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number{Default: f}
	}
	return Text{Default: strings.Trim(def, "'\"")}
}

// MarshalJSON encodes the schema back into its wire shape.
func (s Schema) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]any, len(s))
	for name, d := range s {
		entry := map[string]any{"type": string(d.Kind()), "default": d.DefaultValue()}
		switch v := d.(type) {
		case Number:
			if v.Min != nil {
				entry["min"] = *v.Min
			}
			if v.Max != nil {
				entry["max"] = *v.Max
			}
			if v.Step != nil {
				entry["step"] = *v.Step
			}
		case Select:
			entry["options"] = v.Options
		}
		out[name] = entry
	}
	return json.Marshal(out)
}

// descriptor maps a wire entry onto its variant. Unknown types become Text.
func (r rawDescriptor) descriptor() Descriptor {
	switch strings.ToLower(r.Type) {
	case "number", "int", "integer", "float":
		return Number{Default: numberDefault(r.Default), Min: r.Min, Max: r.Max, Step: r.Step}
	case "select":
		opts := make([]string, len(r.Options))
		for i, o := range r.Options {
			opts[i] = stringify(o)
		}
		return Select{Default: textDefault(r.Default), Options: opts}
	case "boolean", "bool":
		return Boolean{Default: boolDefault(r.Default)}
	default:
		return Text{Default: textDefault(r.Default)}
	}
}

func numberDefault(raw json.RawMessage) float64 {
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

func boolDefault(raw json.RawMessage) bool {
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.EqualFold(s, "true")
	}
	return false
}

func textDefault(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
