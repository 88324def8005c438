package listview

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// Render writes the current page as an aligned table followed by the
// pager line. Row numbers are 1-based positions on the page; they are what
// interactive commands such as "select 2" refer to.
func Render(w io.Writer, s *State) error {
	p := s.Page()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	all := "[ ]"
	if p.AllSelected {
		all = "[x]"
	}
	fmt.Fprintf(tw, "%s\t#\tStudentID\tName\tRoll\tBirthday\tAddress\tID\n", all)

	for i, r := range p.Rows {
		mark := "[ ]"
		if s.IsSelected(r.ID) {
			mark = "[x]"
		}
		birthday := ""
		if r.Birthday != nil {
			birthday = r.Birthday.String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\t%s\t%s\n",
			mark, i+1, r.StudentID, r.Name, r.Roll, birthday, r.Address, r.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(p.Rows) == 0 {
		if s.Term() != "" {
			fmt.Fprintf(w, "No students match %q.\n", s.Term())
		} else {
			fmt.Fprintln(w, "No students.")
		}
	}

	_, err := fmt.Fprintln(w, PagerLine(p, s.SelectionCount()))
	return err
}

// PagerLine renders "Page N of M" with the disabled controls shown in
// brackets, plus the selection count when there is one.
func PagerLine(p Page, selected int) string {
	prev, next := "< prev", "next >"
	if !p.HasPrev {
		prev = "(prev)"
	}
	if !p.HasNext {
		next = "(next)"
	}
	line := prev + "  Page " + strconv.Itoa(p.Number) + " of " + strconv.Itoa(p.Total) +
		"  " + next + "  (" + strconv.Itoa(p.Count) + " students, " + strconv.Itoa(p.Size) + " per page)"
	if selected > 0 {
		line += fmt.Sprintf("  Selected: %d", selected)
	}
	return line
}
