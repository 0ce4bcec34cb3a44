package sanitize

import "fmt"

// Policy says what happens to a field of an untrusted document.
type Policy int

const (
	// Require rejects the document when the field is missing or mistyped.
	Require Policy = iota
	// Strip removes markup and keeps any length.
	Strip
	// Clamp removes markup and truncates to Limit runes.
	Clamp
	// ClampCount truncates an array to Limit elements.
	ClampCount
	// Enum rejects any value outside Allowed.
	Enum
)

func (p Policy) String() string {
	switch p {
	case Require:
		return "require"
	case Strip:
		return "strip"
	case Clamp:
		return "clamp"
	case ClampCount:
		return "clamp_count"
	case Enum:
		return "enum"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Rejects reports whether a bad value under this policy aborts the import.
// Clamped and stripped fields are still rejected when missing or mistyped.
func (p Policy) Rejects() bool {
	return p == Require || p == Enum
}

// Rule is one row of the field policy table.
type Rule struct {
	Field    string
	Policy   Policy
	Limit    int
	Allowed  []string
	Optional bool
}

// Policies is the complete clamp-versus-reject table for imported documents.
var Policies = []Rule{
	{Field: "meta", Policy: Require},
	{Field: "meta.version", Policy: Require},
	{Field: "meta.createdAt", Policy: Require},
	{Field: "meta.updatedAt", Policy: Require},
	{Field: "meta.title", Policy: Clamp, Limit: 20},
	{Field: "meta.author", Policy: Strip, Optional: true},
	{Field: "meta.projectType", Policy: Enum, Allowed: []string{"training"}},
	{Field: "settings", Policy: Require},
	{Field: "settings.layoutType", Policy: Enum, Allowed: []string{"grid1", "grid2", "grid3", "grid4"}},
	{Field: "settings.themeColor", Policy: Strip},
	{Field: "items", Policy: ClampCount, Limit: 10},
	{Field: "items[].id", Policy: Require},
	{Field: "items[].order", Policy: Require},
	{Field: "items[].title", Policy: Clamp, Limit: 20},
	{Field: "items[].imageSource", Policy: Require},
	{Field: "items[].description", Policy: Clamp, Limit: 200},
	{Field: "items[].dosages", Policy: Require, Optional: true},
	{Field: "items[].dosages.reps", Policy: Clamp, Limit: 10},
	{Field: "items[].dosages.sets", Policy: Clamp, Limit: 10},
	{Field: "items[].dosages.frequency", Policy: Clamp, Limit: 10},
	{Field: "items[].precautions", Policy: ClampCount, Limit: 5, Optional: true},
	{Field: "items[].precautions[].id", Policy: Require},
	{Field: "items[].precautions[].value", Policy: Clamp, Limit: 50},
}

// Lookup returns the rule for field.
func Lookup(field string) (Rule, bool) {
	for _, r := range Policies {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

func mustRule(field string) Rule {
	r, ok := Lookup(field)
	if !ok {
		panic("sanitize: no rule for " + field)
	}
	return r
}

func (r Rule) allows(value string) bool {
	for _, a := range r.Allowed {
		if a == value {
			return true
		}
	}
	return false
}
