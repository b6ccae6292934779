package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/sheet"
)

func newExportCommand(flags *globalFlags) *cobra.Command {
	var output string
	var xlsx bool
	var strictness string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Validate a sheet and write the corrected rows",
		Long: "Validate a sheet and write the rows without errors, with corrections applied.\n" +
			"Rows with errors are left out; run validate to see them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			report, err := validateFile(cmd, cfg, args[0], strictness)
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			write := func(w io.Writer) error {
				if xlsx {
					var findings []model.Finding
					if cfg.Export.FindingsSheet {
						findings = report.Findings
					}
					return sheet.WriteXLSX(w, report.Records, findings)
				}
				return budgetcsv.Write(w, report.Records, budgetcsv.ExportOptions{Scale: opts.Rules.Scale})
			}

			if output == "" || output == "-" {
				if err := write(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else if err := writeFile(output, write); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d of %d rows\n", len(report.Records), report.TotalRows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an XLSX workbook instead of CSV")
	cmd.Flags().StringVar(&strictness, "strictness", "", "lenient, standard or strict (default from config)")

	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
