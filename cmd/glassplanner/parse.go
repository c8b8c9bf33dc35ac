package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"glassplanner/internal/dashboard"
	"glassplanner/internal/ics"
	"glassplanner/internal/model"
)

// now is swapped in tests.
var now = time.Now

var (
	parseFormat   string
	parseUpcoming bool
	parseCourses  []string
	parseTimezone string
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse an .ics export and print its assignments",
	Long: `Reads a calendar export ("-" for stdin) and prints the assignments it
contains, sorted by start date.

Formats:
  table  course, due date and summary (default)
  json   full assignment records
  ics    re-exported iCalendar document`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "table", "output format: table, json or ics")
	parseCmd.Flags().BoolVar(&parseUpcoming, "upcoming", false, "hide assignments that started before today")
	parseCmd.Flags().StringSliceVar(&parseCourses, "course", nil, "only include these courses (repeatable)")
	parseCmd.Flags().StringVar(&parseTimezone, "timezone", "Local", "zone that decides where today starts")
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	list, err := ics.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	f := dashboard.Filter{}
	if parseUpcoming {
		loc := time.Local
		if parseTimezone != "" && parseTimezone != "Local" {
			if loc, err = time.LoadLocation(parseTimezone); err != nil {
				return fmt.Errorf("timezone %q: %w", parseTimezone, err)
			}
		}
		f.Now = now()
		f.Location = loc
	}
	if len(parseCourses) > 0 {
		f.Active = make(map[string]bool, len(parseCourses))
		for _, c := range parseCourses {
			f.Active[c] = true
		}
	}
	list = f.Visible(list)

	out := cmd.OutOrStdout()
	switch parseFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "ics":
		_, err := io.WriteString(out, ics.Export(list, now()))
		return err
	case "table", "":
		return writeTable(out, list)
	default:
		return fmt.Errorf("unknown format %q", parseFormat)
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func writeTable(w io.Writer, list []model.Assignment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tDUE\tSUMMARY")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Course, a.StartDate.Format("2006-01-02 15:04"), a.Summary)
	}
	return tw.Flush()
}
