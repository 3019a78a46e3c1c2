// Package topics derives tutor-session topic labels from generated source
// text with a fixed checklist of substring rules.
package topics

import "strings"

// Rule maps a set of substrings to a topic label.
type Rule struct {
	Label string
	// Any matches when the source contains at least one of these.
	Any []string
	// All, when set, additionally requires every one of these.
	All []string
}

// Matches reports whether the rule applies to source.
func (r Rule) Matches(source string) bool {
	if len(r.Any) > 0 && !containsAny(source, r.Any) {
		return false
	}
	for _, s := range r.All {
		if !strings.Contains(source, s) {
			return false
		}
	}
	return len(r.Any) > 0 || len(r.All) > 0
}

// Checklist is the rule set in display order. Matching is case-sensitive
// because the patterns are language keywords and identifiers.
var Checklist = []Rule{
	{Label: "React Hooks", Any: []string{"useState", "useEffect"}},
	{Label: "Async/Await & Promises", Any: []string{"async", "await", "Promise"}},
	{Label: "API Calls & HTTP Requests", Any: []string{"fetch", "axios"}},
	{Label: "Array Methods", Any: []string{"map(", "filter(", "reduce("}},
	{Label: "TypeScript Types", Any: []string{"interface", ": string", ": number"}},
	{Label: "Classes & OOP", Any: []string{"class "}},
	{Label: "Error Handling", All: []string{"try", "catch"}},
	{Label: "React Performance Optimization", Any: []string{"useCallback", "useMemo"}},
	{Label: "React Context API", Any: []string{"useContext", "createContext"}},
	{Label: "ES6 Modules", Any: []string{"import", "export"}},
	{Label: "Variables & Scope", Any: []string{"const ", "let "}},
	{Label: "Arrow Functions", Any: []string{"=>"}},
	{Label: "Spread/Rest Operators", Any: []string{"..."}},
	{Label: "Optional Chaining & Nullish Coalescing", Any: []string{"?.", "??"}},
}

// Fallback is returned when no rule matches.
var Fallback = []string{"General JavaScript", "Code Structure", "Best Practices"}

// Extract returns the labels of every matching Checklist rule, in
// checklist order, or a copy of Fallback when nothing matches.
func Extract(source string) []string {
	return ExtractWith(Checklist, source)
}

// ExtractWith is Extract over a caller-supplied rule set. Duplicate labels
// keep their first position.
func ExtractWith(rules []Rule, source string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.Label] || !r.Matches(source) {
			continue
		}
		seen[r.Label] = true
		out = append(out, r.Label)
	}
	if len(out) == 0 {
		return append([]string(nil), Fallback...)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
