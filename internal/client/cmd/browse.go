package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/client/api"
	"github.com/aanand-mishra/student-records/internal/client/listview"
)

const browseHelp = `Commands:
  n, next               next page
  p, prev               previous page
  page N                go to page N
  size N                rows per page
  search [TERM]         filter by StudentID or name; no term clears
  select ROW...         select rows of this page
  unselect ROW...       unselect rows of this page
  all, none             select or unselect the whole page
  add                   add a student
  edit ROW              edit a student
  del ROW               delete a student
  delsel                delete every selected student
  refresh               refetch from the server
  help                  this text
  q, quit               leave`

func newBrowseCmd(s *studentsClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit students interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("page-size")
			b := &browser{
				cmd:  cmd,
				sess: listview.NewSession(s.api(), size),
				in:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
			}
			b.sess.OnLoading = func(loading bool) {
				if loading {
					fmt.Fprintln(b.out, "Loading...")
				}
			}
			return b.run()
		},
	}
	cmd.Flags().Int("page-size", listview.DefaultPageSize, "Rows per page")
	return cmd
}

// browser is one interactive session. Errors from single commands are
// printed and the loop goes on; only a failed read ends it.
type browser struct {
	cmd  *cobra.Command
	sess *listview.Session
	in   *bufio.Scanner
	out  io.Writer
}

func (b *browser) run() error {
	if err := b.sess.Refresh(b.cmd.Context()); err != nil {
		fmt.Fprintf(b.out, "Error: %s\n", listview.Message(err))
	}
	b.show()

	for {
		line, ok := b.prompt("> ")
		if !ok {
			return b.in.Err()
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		verb, rest := strings.ToLower(fields[0]), fields[1:]
		if verb == "q" || verb == "quit" || verb == "exit" {
			return nil
		}

		redraw, err := b.exec(verb, rest)
		switch {
		case api.IsNotFound(err):
			// Someone else removed the record since the last fetch.
			fmt.Fprintln(b.out, "That student no longer exists; refreshing.")
			if err := b.sess.Refresh(b.cmd.Context()); err != nil {
				fmt.Fprintf(b.out, "Error: %s\n", listview.Message(err))
			}
			redraw = true
		case err != nil:
			fmt.Fprintf(b.out, "Error: %s\n", listview.Message(err))
		}
		if redraw {
			b.show()
		}
	}
}

// exec runs one command and reports whether the table should be redrawn.
func (b *browser) exec(verb string, args []string) (bool, error) {
	ctx := b.cmd.Context()
	view := b.sess.View

	switch verb {
	case "n", "next":
		view.Next()
	case "p", "prev":
		view.Prev()
	case "page", "size":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: %s N", verb)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%s needs a number", verb)
		}
		if verb == "page" {
			view.GoTo(n)
		} else {
			view.SetPageSize(n)
		}
	case "search":
		view.Filter(strings.Join(args, " "))
	case "select", "unselect":
		ids, err := b.rowIDs(args)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if verb == "select" {
				view.Select(id)
			} else {
				view.Unselect(id)
			}
		}
	case "all":
		view.SelectPage(true)
	case "none":
		view.SelectPage(false)
	case "refresh":
		return true, b.sess.Refresh(ctx)
	case "add":
		b.sess.Form.OpenAdd()
		return true, b.fillForm()
	case "edit":
		ids, err := b.rowIDs(args)
		if err != nil || len(ids) != 1 {
			return false, fmt.Errorf("usage: edit ROW")
		}
		rec, _ := view.Find(ids[0])
		b.sess.Form.OpenEdit(rec)
		return true, b.fillForm()
	case "del":
		ids, err := b.rowIDs(args)
		if err != nil || len(ids) != 1 {
			return false, fmt.Errorf("usage: del ROW")
		}
		rec, _ := view.Find(ids[0])
		if !b.confirm(fmt.Sprintf("Delete %s (%d)?", rec.Name, rec.StudentID)) {
			return false, nil
		}
		return true, b.sess.DeleteOne(ctx, rec.ID)
	case "delsel":
		n := view.SelectionCount()
		if n == 0 {
			return false, fmt.Errorf("nothing selected")
		}
		if !b.confirm(fmt.Sprintf("Delete %d selected student(s)?", n)) {
			return false, nil
		}
		deleted, err := b.sess.DeleteSelected(ctx)
		fmt.Fprintf(b.out, "Deleted %d of %d students\n", deleted, n)
		return true, err
	case "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", verb)
	}
	return true, nil
}

// fillForm prompts for every field, then saves. A failed save shows the
// message and offers another round with the typed values kept.
func (b *browser) fillForm() error {
	form := &b.sess.Form
	for {
		fmt.Fprintf(b.out, "%s student (empty input keeps the value in brackets)\n", capitalize(form.Mode.String()))
		fields := []struct {
			label string
			dst   *string
		}{
			{"StudentID", &form.Values.StudentID},
			{"Name", &form.Values.Name},
			{"Roll", &form.Values.Roll},
			{"Birthday (YYYY-MM-DD)", &form.Values.Birthday},
			{"Address", &form.Values.Address},
		}
		for _, f := range fields {
			line, ok := b.prompt(fmt.Sprintf("  %s [%s]: ", f.label, *f.dst))
			if !ok {
				form.Close()
				return b.in.Err()
			}
			if v := strings.TrimSpace(line); v != "" {
				*f.dst = v
			}
		}

		err := b.sess.Save(b.cmd.Context())
		if err == nil {
			fmt.Fprintln(b.out, "Saved")
			return nil
		}
		fmt.Fprintf(b.out, "Error: %s\n", form.Message)
		if !b.confirm("Try again?") {
			form.Close()
			return nil
		}
	}
}

func (b *browser) rowIDs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("which row?")
	}
	rows := b.sess.View.Page().Rows
	ids := make([]string, 0, len(args))
	for _, a := range args {
		i, err := parseRow(a, len(rows))
		if err != nil {
			return nil, err
		}
		ids = append(ids, rows[i].ID)
	}
	return ids, nil
}

func (b *browser) show() {
	if err := listview.Render(b.out, b.sess.View); err != nil {
		fmt.Fprintf(b.out, "Error: %s\n", err)
	}
}

func (b *browser) prompt(p string) (string, bool) {
	fmt.Fprint(b.out, p)
	if !b.in.Scan() {
		fmt.Fprintln(b.out)
		return "", false
	}
	return b.in.Text(), true
}

func (b *browser) confirm(question string) bool {
	line, ok := b.prompt(question + " [y/N]: ")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
