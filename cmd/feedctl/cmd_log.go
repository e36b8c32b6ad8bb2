package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/JonMunkholm/FeedStatus/internal/application"
	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/spf13/cobra"
)

var (
	logDataset string
	logAction  string
	logLimit   int
	logOutput  string
	logConfirm bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect or reset the audit log",
	Long: `Reads the audit log from the configured storage (STORAGE_BACKEND and
AUDIT_LOG_KEY). A running server keeps its own copy in memory: clear the
log from the dashboard while it is running.`,
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print audit log entries, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runLogList,
}

var logExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the audit log as pretty-printed JSON",
	Args:  cobra.NoArgs,
	RunE:  runLogExport,
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every audit log entry",
	Args:  cobra.NoArgs,
	RunE:  runLogClear,
}

func init() {
	logListCmd.Flags().StringVar(&logDataset, "dataset", "", "only entries for this dataset")
	logListCmd.Flags().StringVar(&logAction, "action", "", "only entries with this action type")
	logListCmd.Flags().IntVar(&logLimit, "limit", 50, "maximum entries to print (0 for all)")
	logExportCmd.Flags().StringVarP(&logOutput, "output", "o", "", "file to write (default stdout)")
	logClearCmd.Flags().BoolVar(&logConfirm, "yes", false, "confirm clearing the log")

	logCmd.AddCommand(logListCmd, logExportCmd, logClearCmd)
}

// withService opens the configured storage for the duration of fn.
func withService(cmd *cobra.Command, fn func(context.Context, *core.Service) error) error {
	ctx := commandContext(cmd)
	svc, store, err := application.OpenService(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, svc)
}

func runLogList(cmd *cobra.Command, args []string) error {
	filter := core.AuditLogFilter{Action: core.ActionType(logAction), Limit: logLimit}
	if logDataset != "" {
		key, err := core.ParseDatasetKey(logDataset)
		if err != nil {
			return err
		}
		filter.Dataset = key
	}

	return withService(cmd, func(ctx context.Context, svc *core.Service) error {
		entries, total := svc.Audit().Filter(filter)
		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, map[string]any{"entries": entries, "total": total})
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tITEM\tDETAILS\tIP")
		for _, e := range entries {
			item := ""
			if e.ItemID != nil {
				item = *e.ItemID
			}
			details, _ := json.Marshal(e.Details)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.ActionType, item, details, e.IPAddress)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d of %d entries\n", len(entries), total)
		return nil
	})
}

func runLogExport(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *core.Service) error {
		data, err := svc.Audit().MarshalIndent()
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if logOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(logOutput, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", svc.Audit().Len(), logOutput)
		return nil
	})
}

func runLogClear(cmd *cobra.Command, args []string) error {
	if !logConfirm {
		return fmt.Errorf("refusing to clear the audit log without --yes")
	}
	return withService(cmd, func(ctx context.Context, svc *core.Service) error {
		n := svc.Audit().Len()
		svc.ClearLog(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", n)
		return nil
	})
}
