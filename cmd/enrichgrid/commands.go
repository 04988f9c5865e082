package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/spf13/cobra"
)

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and snapshot paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, configPath, dbPath, _, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(out, "snapshot: %s\n", paths.SnapshotPath)
			return nil
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print records as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(cmd.Context(), cmd, opts, "list")
			if err != nil {
				return err
			}
			defer env.Close()

			records, err := env.svc.ListRecords(cmd.Context())
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRecordTable(records))
			return err
		},
	}
}

// renderRecordTable renders records with a status-colored table.
func renderRecordTable(records []domain.Record) string {
	statusColors := map[domain.Status]lipgloss.Color{
		domain.StatusError:    lipgloss.Color("196"),
		domain.StatusLoading:  lipgloss.Color("214"),
		domain.StatusComplete: lipgloss.Color("42"),
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("ID", "Timestamp", "Action", "Enrichment", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			if col == 4 && row >= 0 && row < len(records) {
				return style.Foreground(statusColors[records[row].Status])
			}
			return style
		})
	for _, rec := range records {
		t.Row(
			strconv.Itoa(rec.ID),
			rec.Timestamp,
			rec.Action,
			string(rec.Enrichment.Icon)+" "+rec.Enrichment.Name,
			string(rec.Status),
		)
	}
	return t.Render()
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records and stats to a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(cmd.Context(), cmd, opts, "export")
			if err != nil {
				return err
			}
			defer env.Close()

			snap, err := env.svc.ExportSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encode snapshot json: %w", err)
			}
			encoded = append(encoded, '\n')

			if outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
					return fmt.Errorf("write snapshot to stdout: %w", err)
				}
				return nil
			}
			if outPath == "" {
				outPath = env.paths.SnapshotPath
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			env.logger.Info("snapshot exported", "path", outPath, "records", len(snap.Records))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file path ('-' for stdout, default: data dir snapshot)")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load records and stats from a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(cmd.Context(), cmd, opts, "import")
			if err != nil {
				return err
			}
			defer env.Close()

			if inPath == "" {
				inPath = env.paths.SnapshotPath
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var snap app.Snapshot
			if err := json.Unmarshal(content, &snap); err != nil {
				return fmt.Errorf("decode snapshot json: %w", err)
			}
			imported, err := env.svc.ImportSnapshot(cmd.Context(), snap)
			if err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			env.logger.Info("snapshot imported", "path", inPath, "records", imported)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", imported)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file (default: data dir snapshot)")
	return cmd
}
