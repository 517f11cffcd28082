// Package filter provides small generic predicate helpers used to build
// deterministic filtered views over catalog items.
package filter

import (
	"strconv"
	"strings"
)

// Predicate defines a function that returns true if the given item matches a condition.
type Predicate[T any] func(item T, filterValue string) bool

// StringValueProvider extracts a single string value from an item of type T.
type StringValueProvider[T any] func(T) string

// BoolValueProvider extracts a single boolean value from an item of type T.
type BoolValueProvider[T any] func(T) bool

// StringValuesProvider extracts a slice of string values from an item of type T.
type StringValuesProvider[T any] func(T) []string

// NormalizeString can be used to normalize a string value for filtering/comparison.
// The value is made lowercase and has any leading and/or trailing whitespace removed.
func NormalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Equals returns a Predicate that checks if the value extracted by the provider
// exactly matches the filter value (case-insensitive, normalized).
func Equals[T any](provider StringValueProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		return NormalizeString(provider(item)) == NormalizeString(val)
	}
}

// EqualsBool returns a Predicate that checks if the value extracted by the provider
// matches the parsed boolean representation of the filter value.
func EqualsBool[T any](provider BoolValueProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		parsed, err := strconv.ParseBool(NormalizeString(val))
		if err != nil {
			return false
		}
		return provider(item) == parsed
	}
}

// Partial returns a Predicate that checks if the value extracted by the provider
// contains the filter value as a substring (case-insensitive, normalized).
func Partial[T any](provider StringValueProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		return strings.Contains(NormalizeString(provider(item)), NormalizeString(val))
	}
}

// HasAny returns a Predicate that checks if the values extracted by the provider
// include any of the comma-separated values in the filter string
// (case-insensitive, normalized).
func HasAny[T any](provider StringValuesProvider[T]) Predicate[T] {
	return func(item T, val string) bool {
		required := make(map[string]struct{})
		for _, v := range strings.Split(val, ",") {
			required[NormalizeString(v)] = struct{}{}
		}
		for _, v := range provider(item) {
			if _, ok := required[NormalizeString(v)]; ok {
				return true
			}
		}
		return false
	}
}

// Match applies the provided filters to an item using the given matchers.
// Filter keys without a registered matcher are ignored; an item matches only if
// every recognized filter's matcher accepts it.
func Match[T any](item T, filters map[string]string, matchers map[string]Predicate[T]) bool {
	for key, val := range filters {
		k := NormalizeString(key)
		if k == "" {
			continue
		}
		matcher, ok := matchers[k]
		if !ok {
			continue
		}
		if !matcher(item, val) {
			return false
		}
	}
	return true
}
