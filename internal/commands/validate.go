package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orcafacil/orcafacil/internal/config"
	"github.com/orcafacil/orcafacil/internal/logger"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/validate"
)

// ErrInvalidRows is returned by validate when a sheet has error findings.
var ErrInvalidRows = errors.New("sheet has invalid rows")

func newValidateCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool
	var strictness string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a budget sheet and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			report, err := validateFile(cmd, cfg, args[0], strictness)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
			} else {
				printReport(out, report)
			}

			if report.HasErrors() {
				return ErrInvalidRows
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&strictness, "strictness", "", "lenient, standard or strict (default from config)")

	return cmd
}

// validateFile reads path and runs the pipeline configured by cfg.
func validateFile(cmd *cobra.Command, cfg *config.Config, path, strictness string) (model.Report, error) {
	opts, err := cfg.Options()
	if err != nil {
		return model.Report{}, fmt.Errorf("invalid config: %w", err)
	}
	if strictness != "" {
		s, err := validate.ParseStrictness(strictness)
		if err != nil {
			return model.Report{}, err
		}
		opts.Rules.Strictness = s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Report{}, fmt.Errorf("reading sheet: %w", err)
	}

	report := pipeline.New(opts).ValidateAndCorrect(string(data))
	log := logger.FromContext(cmd.Context())
	log.Debug().
		Str("file", path).
		Str("strictness", string(opts.Rules.Strictness)).
		Int("findings", len(report.Findings)).
		Msg("sheet validated")
	return report, nil
}

func printReport(w io.Writer, r model.Report) {
	for _, f := range r.Findings {
		fmt.Fprintln(w, f.String())
		if s := f.Suggestion; s != nil {
			state := "not applied"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(w, "    %q -> %q (%s confidence, %s)\n", s.Original, s.Proposed, s.Confidence, state)
		}
	}
	fmt.Fprintf(w, "%d rows: %d valid, %d invalid, %d with warnings, %d corrections applied\n",
		r.TotalRows, r.ValidRows, r.InvalidRows, r.WarnedRows, r.AppliedCorrections())
}
