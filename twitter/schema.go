package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInteger
)

// FieldSpec declares the constraints of one input field. Zero values mean
// "no constraint", except Minimum/Maximum which are only checked when set.
type FieldSpec struct {
	Name        string
	Kind        fieldKind
	Description string
	Required    bool

	MinLength int
	MaxLength int
	// AdvertisedMaxLength is published in the tool schema when it differs
	// from the enforced MaxLength.
	AdvertisedMaxLength int

	Minimum *int
	Maximum *int
}

// Shape is the declarative description of a tool's arguments.
type Shape struct {
	Fields []FieldSpec
}

// ValidationError carries every violated constraint of a payload.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

func intPtr(n int) *int { return &n }

var postTweetShape = Shape{Fields: []FieldSpec{
	{
		Name:                "text",
		Kind:                kindString,
		Description:         "The content of your tweet",
		Required:            true,
		MinLength:           1,
		MaxLength:           500,
		AdvertisedMaxLength: 280,
	},
}}

var searchTweetsShape = Shape{Fields: []FieldSpec{
	{
		Name:        "query",
		Kind:        kindString,
		Description: "Search query",
		Required:    true,
		MinLength:   1,
	},
	{
		Name:        "count",
		Kind:        kindInteger,
		Description: "Number of tweets to return (10-100)",
		Required:    true,
		Minimum:     intPtr(10),
		Maximum:     intPtr(100),
	},
}}

// Validate checks raw JSON arguments against the shape and returns the typed
// field values (string or int). All violations are reported together.
func (s Shape) Validate(raw json.RawMessage) (map[string]any, error) {
	fields := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, &ValidationError{Violations: []string{"arguments must be a JSON object"}}
		}
	}

	values := make(map[string]any, len(s.Fields))
	var violations []string
	for _, f := range s.Fields {
		v, ok := fields[f.Name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			if f.Required {
				violations = append(violations, fmt.Sprintf("%s: required", f.Name))
			}
			continue
		}
		val, problems := f.check(v)
		if len(problems) > 0 {
			violations = append(violations, problems...)
			continue
		}
		values[f.Name] = val
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return values, nil
}

func (f FieldSpec) check(v json.RawMessage) (any, []string) {
	switch f.Kind {
	case kindString:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, []string{fmt.Sprintf("%s: expected string", f.Name)}
		}
		var problems []string
		n := utf8.RuneCountInString(s)
		if f.MinLength > 0 && n < f.MinLength {
			problems = append(problems, fmt.Sprintf("%s: must contain at least %d character(s)", f.Name, f.MinLength))
		}
		if f.MaxLength > 0 && n > f.MaxLength {
			problems = append(problems, fmt.Sprintf("%s: must contain at most %d character(s)", f.Name, f.MaxLength))
		}
		return s, problems
	case kindInteger:
		var num float64
		if err := json.Unmarshal(v, &num); err != nil {
			return nil, []string{fmt.Sprintf("%s: expected integer", f.Name)}
		}
		if num != math.Trunc(num) || math.IsInf(num, 0) {
			return nil, []string{fmt.Sprintf("%s: must be an integer", f.Name)}
		}
		var problems []string
		if f.Minimum != nil && num < float64(*f.Minimum) {
			problems = append(problems, fmt.Sprintf("%s: must be greater than or equal to %d", f.Name, *f.Minimum))
		}
		if f.Maximum != nil && num > float64(*f.Maximum) {
			problems = append(problems, fmt.Sprintf("%s: must be less than or equal to %d", f.Name, *f.Maximum))
		}
		return int(num), problems
	}
	return nil, []string{fmt.Sprintf("%s: unsupported field kind", f.Name)}
}

// JSONSchema renders the shape as the tool's advertised input schema.
func (s Shape) JSONSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		prop := &jsonschema.Schema{Description: f.Description}
		switch f.Kind {
		case kindString:
			prop.Type = "string"
			if f.MinLength > 0 {
				prop.MinLength = intPtr(f.MinLength)
			}
			if f.AdvertisedMaxLength > 0 {
				prop.MaxLength = intPtr(f.AdvertisedMaxLength)
			} else if f.MaxLength > 0 {
				prop.MaxLength = intPtr(f.MaxLength)
			}
		case kindInteger:
			prop.Type = "integer"
			if f.Minimum != nil {
				m := float64(*f.Minimum)
				prop.Minimum = &m
			}
			if f.Maximum != nil {
				m := float64(*f.Maximum)
				prop.Maximum = &m
			}
		}
		schema.Properties[f.Name] = prop
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}

func parsePostTweetArgs(raw json.RawMessage) (PostTweetArgs, error) {
	values, err := postTweetShape.Validate(raw)
	if err != nil {
		return PostTweetArgs{}, err
	}
	return PostTweetArgs{Text: values["text"].(string)}, nil
}

func parseSearchTweetsArgs(raw json.RawMessage) (SearchTweetsArgs, error) {
	values, err := searchTweetsShape.Validate(raw)
	if err != nil {
		return SearchTweetsArgs{}, err
	}
	return SearchTweetsArgs{
		Query: values["query"].(string),
		Count: values["count"].(int),
	}, nil
}
