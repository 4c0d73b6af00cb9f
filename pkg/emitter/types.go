package emitter

// TypeMap maps Lumin type names to TypeScript type names. Names without an
// entry pass through unchanged.
type TypeMap map[string]string

// DefaultTypes is the built-in type table.
var DefaultTypes = TypeMap{
	"num":       "number",
	"text":      "string",
	"str":       "string",
	"bool":      "boolean",
	"nil":       "void",
	"any":       "any",
	"exception": "any",
}

// Resolve returns the TypeScript name for a Lumin type name.
func (m TypeMap) Resolve(name string) string {
	if mapped, ok := m[name]; ok {
		return mapped
	}
	return name
}

// With returns a copy of m with overrides applied on top.
func (m TypeMap) With(overrides map[string]string) TypeMap {
	merged := make(TypeMap, len(m)+len(overrides))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
