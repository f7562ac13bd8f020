package filter

import (
	"net/url"
	"strings"
	"testing"
)

func TestNewOptions(t *testing.T) {
	options := NewOptions(url.Values{})
	if len(options.Filters) != 0 {
		t.Errorf("expected empty filters, got %v", options.Filters)
	}
	if len(options.Includes) != 0 {
		t.Errorf("expected empty includes, got %v", options.Includes)
	}
	if len(options.Sort) != 0 {
		t.Errorf("expected empty sort, got %v", options.Sort)
	}
	if options.Limit != 0 {
		t.Errorf("expected no limit, got %d", options.Limit)
	}

	query := url.Values{}
	query.Add("filter[id]", "1, 2,3")
	query.Add("filter[route]", "L3")
	query.Add("filter[route]", "L4")
	query.Add("include", "stops,shapes")
	query.Add("sort", "name,-id")
	query.Add("page[limit]", "5")

	options = NewOptions(query)

	if got := options.Values("id"); len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "3" {
		t.Errorf("unexpected filter[id]: got %v want [1 2 3]", got)
	}
	if got := options.Values("route"); len(got) != 2 || got[0] != "L3" || got[1] != "L4" {
		t.Errorf("unexpected filter[route]: got %v want [L3 L4]", got)
	}
	if !options.HasFilter("id") || options.HasFilter("type") {
		t.Errorf("HasFilter mismatch: %v", options.Filters)
	}
	if !options.HasInclude("stops") || !options.HasInclude("shapes") || options.HasInclude("trips") {
		t.Errorf("unexpected includes: %v", options.Includes)
	}
	if len(options.Sort) != 2 || options.Sort[1] != "-id" {
		t.Errorf("unexpected sort: %v", options.Sort)
	}
	if options.Limit != 5 {
		t.Errorf("unexpected limit: got %d want 5", options.Limit)
	}
}

func TestInvalidLimitIgnored(t *testing.T) {
	for _, v := range []string{"-1", "0", "ten"} {
		options := NewOptions(url.Values{"page[limit]": {v}})
		if options.Limit != 0 {
			t.Errorf("page[limit]=%s: got %d want 0", v, options.Limit)
		}
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4}

	if got := Paginate(&Options{Limit: 2}, items); len(got) != 2 {
		t.Errorf("got %v want 2 items", got)
	}
	if got := Paginate(&Options{}, items); len(got) != 4 {
		t.Errorf("got %v want 4 items", got)
	}
}

func TestFilter(t *testing.T) {
	numbers := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	even := Filter(numbers, func(n int) bool { return n%2 == 0 })
	want := []int{2, 4, 6, 8, 10}
	if len(even) != len(want) {
		t.Fatalf("got %v want %v", even, want)
	}
	for i := range want {
		if even[i] != want[i] {
			t.Errorf("index %d: got %d want %d", i, even[i], want[i])
		}
	}

	if none := Filter(numbers, func(n int) bool { return n > 10 }); len(none) != 0 {
		t.Errorf("expected no matches, got %v", none)
	}
}

func TestAnyContains(t *testing.T) {
	if !Any([]int{1, 2, 3}, func(n int) bool { return n == 3 }) {
		t.Errorf("expected match")
	}
	if Any([]int{}, func(n int) bool { return true }) {
		t.Errorf("empty slice should not match")
	}
	if !Contains([]string{"a", "b"}, "b") || Contains([]string{"a"}, "c") {
		t.Errorf("Contains mismatch")
	}
}

type line struct {
	name  string
	order int
}

func TestSortBy(t *testing.T) {
	fields := map[string]CompareFunc[line]{
		"name":  func(a, b line) int { return strings.Compare(a.name, b.name) },
		"order": func(a, b line) int { return a.order - b.order },
	}
	names := func(items []line) string {
		var out []string
		for _, it := range items {
			out = append(out, it.name)
		}
		return strings.Join(out, ",")
	}

	items := []line{{"L4", 2}, {"L1", 1}, {"L3", 2}}

	if err := SortBy(NewOptions(url.Values{}), items, fields); err != nil || names(items) != "L4,L1,L3" {
		t.Errorf("no sort: got %s, %v", names(items), err)
	}

	if err := SortBy(NewOptions(url.Values{"sort": {"-order,name"}}), items, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(items); got != "L3,L4,L1" {
		t.Errorf("sort=-order,name: got %s want L3,L4,L1", got)
	}

	if err := SortBy(NewOptions(url.Values{"sort": {"colour"}}), items, fields); err == nil {
		t.Errorf("expected an error for an unknown field")
	}
}
