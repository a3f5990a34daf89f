package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/prodcheck/internal/database"
	"github.com/nao1215/prodcheck/internal/history"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/nao1215/prodcheck/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// errUnknownKind is returned for a --kind other than live or synthetic.
var errUnknownKind = errors.New("unknown run kind: use live or synthetic")

// NewHistoryCmd creates the history command.
// This command lists and compares runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and compare stored check runs",
		Long: `History shows the runs saved by 'prodcheck check' and 'prodcheck monitor'.

Without flags it lists the most recent runs. With --compare it compares the
latest two runs of one kind and shows:
- New defects that appeared since the previous run
- Resolved defects that are no longer present
- The change of every defect category

Examples:
  # List recent runs
  prodcheck history

  # List only live runs
  prodcheck history --kind live --limit 50

  # Compare the latest two live runs
  prodcheck history --compare

  # Output the comparison in JSON format
  prodcheck history --compare --json

  # Show the report of a stored run
  prodcheck history --show 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	addStorageFlags(cmd)

	cmd.Flags().StringP("kind", "k", "",
		"Only include runs of this kind (live or synthetic)")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Bool("compare", false,
		"Compare the latest two runs of --kind (default live)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")
	cmd.Flags().String("show", "",
		"Print the report of the run with this ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	kindFlag, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	kind, err := parseKind(kindFlag)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID != "":
		return showRun(ctx, out, db, showID)
	case compare:
		if kind == "" {
			kind = model.RunKindLive
		}
		return compareLatest(ctx, out, db, kind, jsonOutput)
	default:
		return listRuns(ctx, out, db, kind, limit)
	}
}

// parseKind converts the --kind flag into a run kind. Empty means all kinds.
func parseKind(s string) (model.RunKind, error) {
	switch model.RunKind(strings.ToLower(s)) {
	case "":
		return "", nil
	case model.RunKindLive:
		return model.RunKindLive, nil
	case model.RunKindSynthetic:
		return model.RunKindSynthetic, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownKind, s)
	}
}

// listRuns prints stored runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, kind model.RunKind, limit int) error {
	runs, err := db.ListRuns(ctx, kind, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'prodcheck check' to validate the catalog.")
		return nil
	}

	fmt.Fprintf(out, "Stored runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %-6s  %-8s  %-7s  %s\n",
		"ID", "Date", "Kind", "Status", "Products", "Defects", "Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 118))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %-6s  %-8d  %-7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			formatStatus(r),
			r.TotalProducts,
			r.TotalDefects,
			formatSummary(r.Summary),
		)
	}

	fmt.Fprintln(out, "\nUse 'prodcheck history --compare' to compare the latest two live runs.")
	fmt.Fprintln(out, "Use 'prodcheck history --show <id>' to print the report of a run.")

	return nil
}

// formatStatus returns the response code of a live run, or "-" for
// synthetic runs, which have no response.
func formatStatus(r database.RunSummary) string {
	if r.Kind == model.RunKindSynthetic {
		return "-"
	}
	return fmt.Sprintf("%d", r.StatusCode)
}

// formatSummary formats the category counts compactly.
func formatSummary(s model.Summary) string {
	var parts []string
	if s.APIResponseErrors > 0 {
		parts = append(parts, fmt.Sprintf("API:%d", s.APIResponseErrors))
	}
	if s.MissingAttributes > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", s.MissingAttributes))
	}
	if s.EmptyValues > 0 {
		parts = append(parts, fmt.Sprintf("E:%d", s.EmptyValues))
	}
	if s.InvalidValues > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", s.InvalidValues))
	}

	if len(parts) == 0 {
		return "No defects"
	}
	return strings.Join(parts, " ")
}

// compareLatest compares the latest two runs of kind.
func compareLatest(ctx context.Context, out io.Writer, db *database.RunDB, kind model.RunKind, jsonOutput bool) error {
	runs, err := db.LatestRuns(ctx, kind, 2)
	if err != nil {
		return err
	}
	if len(runs) < 2 {
		return fmt.Errorf("at least 2 %s runs are required for comparison (found %d)", kind, len(runs))
	}

	comparison := history.Compare(runs[1], runs[0])

	if jsonOutput {
		return history.WriteJSON(out, comparison)
	}
	return history.WriteText(out, comparison)
}

// showRun prints the report of a stored run.
func showRun(ctx context.Context, out io.Writer, db *database.RunDB, id string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s (%s) of %s\n", run.ID, run.Kind, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Source: %s\n", run.Source)
	if run.Kind == model.RunKindLive {
		fmt.Fprintf(out, "Response Code: %d\n", run.StatusCode)
	}

	r := run.Report
	if r == nil {
		r = model.GenerateReport(run.Defects, 0)
	}
	_, err = report.NewSimpleWriter(out).WriteReport(r)
	return err
}
