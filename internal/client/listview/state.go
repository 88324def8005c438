// Package listview holds the client-side state of the student list:
// the last fetched record set, the search filter, pagination and the
// row selection. It has no I/O of its own, so filtering and paging can be
// tested without a server or a terminal.
package listview

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-records/internal/types"
)

// DefaultPageSize is the number of rows shown per page until changed.
const DefaultPageSize = 5

// State is the view state of one client session.
// The zero value is not ready for use; call New.
type State struct {
	all      []types.Student
	filtered []types.Student
	term     string
	page     int
	pageSize int
	selected map[string]struct{}
}

// Page is one rendered page of the active set.
type Page struct {
	Number  int // 1-based, already clamped
	Size    int
	Total   int // number of pages, at least 1
	Count   int // records in the active set
	Rows    []types.Student
	HasPrev bool
	HasNext bool

	// AllSelected reflects only the rows of this page; it is false for an
	// empty page.
	AllSelected bool
}

func New(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &State{
		page:     1,
		pageSize: pageSize,
		selected: make(map[string]struct{}),
	}
}

// SetRecords replaces the full set with a fresh List result. The current
// filter is reapplied and the page is kept (clamped); selections of
// records that no longer exist are dropped.
func (s *State) SetRecords(records []types.Student) {
	s.all = slices.Clone(records)
	s.filtered = Filter(s.all, s.term)

	present := make(map[string]struct{}, len(s.all))
	for _, r := range s.all {
		present[r.ID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}

	s.page = clampPage(s.page, len(s.Active()), s.pageSize)
}

// All returns the full record set as last fetched.
func (s *State) All() []types.Student { return s.all }

// Filter sets the search term and goes back to page 1. The term is used
// as typed, surrounding spaces included; an empty term clears the filter.
func (s *State) Filter(term string) {
	s.term = term
	s.filtered = Filter(s.all, s.term)
	s.page = 1
}

// Term returns the active search term, "" when unfiltered.
func (s *State) Term() string { return s.term }

// Active returns the filtered subset, or the full set when no filter is set.
// A filter that matches nothing yields an empty active set.
func (s *State) Active() []types.Student {
	if s.term == "" {
		return s.all
	}
	return s.filtered
}

// SetPageSize changes the rows per page and goes back to page 1.
func (s *State) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	s.pageSize = n
	s.page = 1
}

func (s *State) PageSize() int { return s.pageSize }

// GoTo moves to page n, clamped to the valid range, and returns the
// resulting page number.
func (s *State) GoTo(n int) int {
	s.page = clampPage(n, len(s.Active()), s.pageSize)
	return s.page
}

func (s *State) Next() int { return s.GoTo(s.page + 1) }
func (s *State) Prev() int { return s.GoTo(s.page - 1) }

// Page returns the rows currently on screen.
func (s *State) Page() Page {
	p := Paginate(s.Active(), s.pageSize, s.page)
	p.AllSelected = len(p.Rows) > 0
	for _, r := range p.Rows {
		if !s.IsSelected(r.ID) {
			p.AllSelected = false
			break
		}
	}
	return p
}

// Find returns the record with the given identity from the full set.
func (s *State) Find(id string) (types.Student, bool) {
	for _, r := range s.all {
		if r.ID == id {
			return r, true
		}
	}
	return types.Student{}, false
}

// HasStudentID reports whether any fetched record uses the StudentID.
// It only sees the local copy, so it is a best-effort duplicate check.
func (s *State) HasStudentID(studentID int) bool {
	return slices.ContainsFunc(s.all, func(r types.Student) bool {
		return r.StudentID == studentID
	})
}

func (s *State) Select(id string)   { s.selected[id] = struct{}{} }
func (s *State) Unselect(id string) { delete(s.selected, id) }

// Toggle flips the selection of id and returns the new state.
func (s *State) Toggle(id string) bool {
	if s.IsSelected(id) {
		s.Unselect(id)
		return false
	}
	s.Select(id)
	return true
}

func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectPage selects or unselects every row of the current page.
// Rows on other pages are left as they are.
func (s *State) SelectPage(on bool) {
	for _, r := range s.Page().Rows {
		if on {
			s.Select(r.ID)
		} else {
			s.Unselect(r.ID)
		}
	}
}

// Selected returns the selected identities in a stable order.
func (s *State) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *State) SelectionCount() int { return len(s.selected) }

// ClearSelection unselects the given identities, or everything when
// called without arguments.
func (s *State) ClearSelection(ids ...string) {
	if len(ids) == 0 {
		clear(s.selected)
		return
	}
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// Filter returns the records whose StudentID (in decimal) or Name
// (case-insensitively) contains term. An empty term matches everything.
func Filter(records []types.Student, term string) []types.Student {
	if term == "" {
		return slices.Clone(records)
	}
	needle := strings.ToLower(term)

	out := make([]types.Student, 0, len(records))
	for _, r := range records {
		if strings.Contains(strconv.Itoa(r.StudentID), needle) ||
			strings.Contains(strings.ToLower(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Paginate cuts page n of the given size out of records. n is clamped to
// [1, Total]; Total is ceil(len/size) but never less than 1.
func Paginate(records []types.Student, size, n int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := pageCount(len(records), size)
	n = clampPage(n, len(records), size)

	start := min((n-1)*size, len(records))
	end := min(start+size, len(records))

	return Page{
		Number:  n,
		Size:    size,
		Total:   total,
		Count:   len(records),
		Rows:    records[start:end],
		HasPrev: n > 1,
		HasNext: n < total,
	}
}

func pageCount(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count + size - 1) / size
}

func clampPage(n, count, size int) int {
	return max(1, min(n, pageCount(count, size)))
}
