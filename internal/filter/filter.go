package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Options holds the filter, include, sort and page parameters of an API request
type Options struct {
	Filters  map[string][]string
	Includes []string
	Sort     []string
	Limit    int
}

// NewOptions parses query parameters of the form
// filter[name]=a,b&include=x,y&sort=a,-b&page[limit]=n.
func NewOptions(query url.Values) *Options {
	options := &Options{
		Filters:  make(map[string][]string),
		Includes: []string{},
		Sort:     []string{},
	}

	for key, values := range query {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			name := key[7 : len(key)-1]
			for _, v := range values {
				options.Filters[name] = append(options.Filters[name], splitList(v)...)
			}
		}
	}

	options.Includes = splitList(query.Get("include"))
	options.Sort = splitList(query.Get("sort"))

	if n, err := strconv.Atoi(query.Get("page[limit]")); err == nil && n > 0 {
		options.Limit = n
	}

	return options
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// HasFilter checks if a specific filter exists
func (o *Options) HasFilter(name string) bool {
	_, exists := o.Filters[name]
	return exists
}

// Values returns the comma-split values of a filter
func (o *Options) Values(name string) []string {
	return o.Filters[name]
}

// HasInclude checks if a specific include is requested
func (o *Options) HasInclude(name string) bool {
	return Contains(o.Includes, name)
}

// Paginate truncates items to the requested page limit, if any.
func Paginate[T any](o *Options, items []T) []T {
	if o.Limit > 0 && len(items) > o.Limit {
		return items[:o.Limit]
	}
	return items
}

// CompareFunc orders two items like cmp.Compare.
type CompareFunc[T any] func(a, b T) int

// SortBy orders items by the requested sort fields, each looked up in
// fields. A leading "-" reverses a field. Unknown fields are an error.
func SortBy[T any](o *Options, items []T, fields map[string]CompareFunc[T]) error {
	if len(o.Sort) == 0 {
		return nil
	}

	compares := make([]CompareFunc[T], 0, len(o.Sort))
	for _, key := range o.Sort {
		name, desc := strings.CutPrefix(key, "-")
		compare, ok := fields[name]
		if !ok {
			return fmt.Errorf("cannot sort by %q", name)
		}
		if desc {
			asc := compare
			compare = func(a, b T) int { return asc(b, a) }
		}
		compares = append(compares, compare)
	}

	slices.SortStableFunc(items, func(a, b T) int {
		for _, compare := range compares {
			if c := compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(item T) bool

// Filter returns the items for which fn is true, in their original order.
func Filter[T any](items []T, fn FilterFunc[T]) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if fn(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Any reports whether fn is true for at least one item.
func Any[T any](items []T, fn FilterFunc[T]) bool {
	for _, item := range items {
		if fn(item) {
			return true
		}
	}
	return false
}

// Contains reports whether want is one of values.
func Contains(values []string, want string) bool {
	return Any(values, func(v string) bool { return v == want })
}
