package chat

import "fmt"

// Schema is a small structural subset of JSON Schema: just enough to
// validate the tool argument bags this pipeline actually proposes and
// executes. No example repo in the corpus validates JSON Schema in
// production code, and the subset needed here (type/required/enum/
// properties) is small enough that pulling in a general-purpose
// validator would be pure overhead.
type Schema struct {
	Type       string            `json:"type"`
	Required   []string          `json:"required,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Enum       []string          `json:"enum,omitempty"`
}

// Validate checks args against s, returning a description of the first
// violation found, or "" if args conforms.
func (s Schema) Validate(args map[string]any) string {
	if s.Type != "" && s.Type != "object" {
		return fmt.Sprintf("unsupported top-level schema type %q", s.Type)
	}

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Sprintf("missing required argument %q", name)
		}
	}

	for name, value := range args {
		prop, ok := s.Properties[name]
		if !ok {
			continue
		}
		if msg := prop.validateValue(name, value); msg != "" {
			return msg
		}
	}

	return ""
}

func (s Schema) validateValue(name string, value any) string {
	switch s.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%q must be a string", name)
		}
		if len(s.Enum) > 0 && !containsString(s.Enum, str) {
			return fmt.Sprintf("%q must be one of %v", name, s.Enum)
		}
	case "number", "integer":
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Sprintf("%q must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%q must be a boolean", name)
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Sprintf("%q must be an object", name)
		}
		for propName, propSchema := range s.Properties {
			if v, ok := obj[propName]; ok {
				if msg := propSchema.validateValue(propName, v); msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
