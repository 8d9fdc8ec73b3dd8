package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import books from a CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Importer.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d books (%d failed, %d new categories)\n",
				result.BooksImported, result.BooksFailed, result.CategoriesCreated)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var file, dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every book to CSV",
		Long:  "Export every book to CSV. Writes to stdout unless --file or --dir is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			switch {
			case dir != "":
				result, err := app.Exporter.ExportToDir(ctx, dir, "books", time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d books to %s\n", result.BooksExported, result.Path)
			case file != "" && file != "-":
				result, err := app.Exporter.ExportToFile(ctx, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d books to %s\n", result.BooksExported, result.Path)
			default:
				if _, err := app.Exporter.Export(ctx, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (\"-\" for stdout)")
	cmd.Flags().StringVar(&dir, "dir", "", "write a timestamped backup file into this directory")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")
	return cmd
}

func newRerankCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rerank",
		Short: "Renumber the reading queue 1..n",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			changed, err := app.Library.RerankQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reranked queue, %d books moved\n", changed)
			return nil
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Library.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Books read:      %d\n", stats.TotalRead)
			fmt.Fprintf(out, "Read this year:  %d\n", stats.ReadThisYear)
			fmt.Fprintf(out, "In queue:        %d\n", stats.InQueue)
			fmt.Fprintf(out, "Yearly run rate: %.1f\n", stats.RunRate)
			return nil
		},
	}
}
