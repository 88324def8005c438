package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/client/listview"
)

func (s *studentsClient) commands() []*cobra.Command {
	list := &cobra.Command{Use: "list", Short: "List students", Args: cobra.NoArgs, RunE: s.list}
	list.Flags().String("search", "", "Filter by StudentID or name")
	list.Flags().Int("page", 1, "Page number")
	list.Flags().Int("page-size", listview.DefaultPageSize, "Rows per page")

	get := &cobra.Command{Use: "get <id>", Short: "Get student by id", Args: cobra.ExactArgs(1), RunE: s.get}

	add := &cobra.Command{Use: "add", Short: "Add a student", Args: cobra.NoArgs, RunE: s.add}
	addFieldFlags(add)

	edit := &cobra.Command{Use: "edit <id>", Short: "Edit a student; only the given fields change", Args: cobra.ExactArgs(1), RunE: s.edit}
	addFieldFlags(edit)

	del := &cobra.Command{Use: "delete <id>...", Short: "Delete one or more students", Args: cobra.MinimumNArgs(1), RunE: s.delete}
	del.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	seed := &cobra.Command{Use: "seed", Short: "Add random sample students", Args: cobra.NoArgs, RunE: s.seed}
	seed.Flags().Int("count", listview.DefaultSampleSize, "Number of students to add")

	return []*cobra.Command{list, get, add, edit, del, seed}
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("student-id", "", "Student ID (integer)")
	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("roll", "", "Roll number (integer)")
	cmd.Flags().String("birthday", "", "Birthday, YYYY-MM-DD")
	cmd.Flags().String("address", "", "Address")
}

// applyFieldFlags overwrites the form values that were set on the
// command line.
func applyFieldFlags(cmd *cobra.Command, v *listview.Values) {
	fields := map[string]*string{
		"student-id": &v.StudentID,
		"name":       &v.Name,
		"roll":       &v.Roll,
		"birthday":   &v.Birthday,
		"address":    &v.Address,
	}
	for name, dst := range fields {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
}

func (s *studentsClient) list(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")

	sess := listview.NewSession(s.api(), size)
	if err := sess.Refresh(cmd.Context()); err != nil {
		return err
	}
	sess.View.Filter(search)
	sess.View.GoTo(page)
	return listview.Render(cmd.OutOrStdout(), sess.View)
}

func (s *studentsClient) get(cmd *cobra.Command, args []string) error {
	rec, err := s.api().Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func (s *studentsClient) add(cmd *cobra.Command, args []string) error {
	sess := listview.NewSession(s.api(), 0)
	// The full set is needed for the duplicate StudentID check.
	if err := sess.Refresh(cmd.Context()); err != nil {
		return err
	}

	sess.Form.OpenAdd()
	applyFieldFlags(cmd, &sess.Form.Values)
	if err := sess.Save(cmd.Context()); err != nil {
		return formError(sess, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Student added")
	return nil
}

func (s *studentsClient) edit(cmd *cobra.Command, args []string) error {
	client := s.api()
	rec, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	sess := listview.NewSession(client, 0)
	sess.Form.OpenEdit(rec)
	applyFieldFlags(cmd, &sess.Form.Values)
	if err := sess.Save(cmd.Context()); err != nil {
		return formError(sess, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Student updated")
	return nil
}

func (s *studentsClient) delete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %d student(s)?", len(args)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	sess := listview.NewSession(s.api(), 0)
	if len(args) == 1 {
		if err := sess.DeleteOne(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Student deleted")
		return nil
	}

	for _, id := range args {
		sess.View.Select(id)
	}
	total := sess.View.SelectionCount()
	n, err := sess.DeleteSelected(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d students\n", n, total)
	return err
}

func (s *studentsClient) seed(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")

	sess := listview.NewSession(s.api(), 0)
	if err := sess.Refresh(cmd.Context()); err != nil {
		return err
	}
	n, err := sess.Seed(cmd.Context(), newRand(), count)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d sample students\n", n)
	return err
}

func newRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>32))
}

// formError returns the message the form was left with, so the user sees
// the server's wording rather than the status line.
func formError(sess *listview.Session, err error) error {
	if msg := sess.Form.Message; msg != "" {
		return errors.New(msg)
	}
	return err
}

// confirm asks a yes/no question; anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// parseRow turns a 1-based row number typed by the user into a page index.
func parseRow(arg string, rows int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > rows {
		return 0, fmt.Errorf("no row %q on this page", arg)
	}
	return n - 1, nil
}
