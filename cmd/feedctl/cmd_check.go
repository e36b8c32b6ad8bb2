package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/kv"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the registered datasets",
	Args:  cobra.NoArgs,
	RunE:  runDatasets,
}

var checkCmd = &cobra.Command{
	Use:   "check <dataset> <file.csv>",
	Short: "Report what uploading a CSV file would do",
	Long: `Parses the file the way an upload does and prints the rows that would be
kept or skipped, duplicate values and any error that would reject the upload.
Nothing is changed and nothing is logged.

Exits non-zero when the upload would fail.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func runDatasets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	datasets := core.Datasets()
	if jsonOut {
		type info struct {
			Key     core.DatasetKey `json:"key"`
			Label   string          `json:"label"`
			Columns []string        `json:"columns"`
		}
		list := make([]info, len(datasets))
		for i, ds := range datasets {
			list[i] = info{Key: ds.Key, Label: ds.Label, Columns: ds.Columns}
		}
		return writeJSON(out, list)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tCOLUMNS")
	for _, ds := range datasets {
		cols := "(open)"
		if len(ds.Columns) > 0 {
			cols = strings.Join(ds.Columns, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ds.Key, ds.Label, cols)
	}
	return tw.Flush()
}

func runCheck(cmd *cobra.Command, args []string) error {
	key, err := core.ParseDatasetKey(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := commandContext(cmd)

	// A scratch service: analysis never touches stored data.
	svc := core.NewService(ctx, core.Options{
		Store:       kv.NewMemoryStore(),
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxWaitTime: cfg.Upload.MaxWaitTime,
	})
	preview, err := svc.AnalyzeUpload(ctx, key, filepath.Base(args[1]), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := writeJSON(out, preview); err != nil {
			return err
		}
	} else {
		printPreview(out, preview)
	}
	if preview.WouldFail != nil {
		msg := core.MapError(preview.WouldFail)
		return fmt.Errorf("upload would fail: %s (%s)", msg.Message, msg.Code)
	}
	return nil
}

func printPreview(w io.Writer, p *core.PreviewResponse) {
	s := p.Summary
	fmt.Fprintf(w, "File:        %s (%s)\n", p.FileName, p.Dataset)
	fmt.Fprintf(w, "Rows:        %d total, %d kept, %d skipped\n", s.TotalRows, s.KeptRows, s.SkippedRows)
	if len(p.AddedColumns) > 0 {
		fmt.Fprintf(w, "New columns: %s\n", strings.Join(p.AddedColumns, ", "))
	}
	if len(p.DroppedColumns) > 0 {
		fmt.Fprintf(w, "Dropped:     %s\n", strings.Join(p.DroppedColumns, ", "))
	}
	for _, d := range p.DuplicateSamples {
		fmt.Fprintf(w, "Duplicate:   %q on lines %v\n", d.Value, d.LineNumbers)
	}
	for _, row := range p.SkippedSamples {
		fmt.Fprintf(w, "Skipped:     line %d\n", row.LineNumber)
	}
	for _, e := range p.Errors {
		fmt.Fprintf(w, "Error:       %s\n", e)
	}
	if p.WouldFail == nil {
		fmt.Fprintln(w, "OK: the file can be uploaded.")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
