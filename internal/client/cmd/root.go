package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/client/api"
)

const defaultServerURL = "http://localhost:5000"

func NewRootCmd(version, buildDate string) *cobra.Command {
	serverURL := defaultServerURL
	if v := os.Getenv("STUDENTS_API_URL"); v != "" {
		serverURL = v
	}

	root := &cobra.Command{
		Use:           "studentctl",
		Short:         "Student records CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", serverURL, "Server base URL (env STUDENTS_API_URL)")

	s := &studentsClient{serverURL: &serverURL}
	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(s.commands()...)
	root.AddCommand(newBrowseCmd(s))
	return root
}

// studentsClient builds the API client from the --server flag at run
// time, after flags have been parsed.
type studentsClient struct {
	serverURL *string
}

func (s *studentsClient) api() *api.Client {
	return api.New(*s.serverURL, nil)
}
