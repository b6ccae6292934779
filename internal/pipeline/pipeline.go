// Package pipeline turns raw sheet text into a validation report and back.
package pipeline

import (
	"errors"
	"slices"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/validate"
)

// Options configures a Pipeline. Start from DefaultOptions; a zero Options has
// no scale thresholds.
type Options struct {
	Rules validate.Rules
}

// DefaultOptions uses validate.DefaultRules.
func DefaultOptions() Options {
	return Options{Rules: validate.DefaultRules()}
}

// Pipeline runs the parse, field, record and batch steps in order. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	opts    Options
	fields  *validate.FieldValidator
	records *validate.RecordValidator
}

// New builds a Pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{
		opts:    opts,
		fields:  validate.NewFieldValidator(opts.Rules),
		records: validate.NewRecordValidator(opts.Rules),
	}
}

// Options returns the options p was built with.
func (p *Pipeline) Options() Options { return p.opts }

// run carries the state of one ValidateAndCorrect call.
type run struct {
	report model.Report
}

func (r *run) enter(s model.State) {
	r.report.Trace = append(r.report.Trace, s)
}

// ValidateAndCorrect validates raw sheet text. Data problems are reported as
// findings; the call itself never fails. Header problems end the run before
// any data row is read.
func (p *Pipeline) ValidateAndCorrect(raw string) model.Report {
	r := &run{report: model.Report{
		Findings: []model.Finding{},
		Records:  []model.BudgetRecord{},
	}}
	r.enter(model.StateStart)

	table, err := budgetcsv.Parse(raw)
	if err != nil {
		r.report.Findings = headerFindings(err)
		r.enter(model.StateReportReady)
		return r.report
	}
	r.enter(model.StateHeadersParsed)

	r.report.TotalRows = len(table.Rows)
	r.enter(model.StateRowsParsed)

	cands := make([]validate.Candidate, 0, len(table.Rows))
	for _, row := range table.Rows {
		c := p.fields.ValidateRow(row.Cells, table.Header, row.Number)
		r.report.Findings = append(r.report.Findings, c.Findings...)
		cands = append(cands, c)
	}
	r.enter(model.StateFieldsValidated)

	r.report.Findings = append(r.report.Findings, p.records.ValidateBatch(cands)...)
	sortFindings(r.report.Findings)
	r.enter(model.StateBatchValidated)

	r.tally(cands)
	r.enter(model.StateReportReady)
	return r.report
}

func (r *run) tally(cands []validate.Candidate) {
	failed := make(map[int]bool)
	warned := make(map[int]bool)
	for _, f := range r.report.Findings {
		switch f.Severity {
		case model.SeverityError:
			failed[f.Row] = true
		case model.SeverityWarning:
			warned[f.Row] = true
		}
	}

	for _, c := range cands {
		if failed[c.Row] {
			r.report.InvalidRows++
			continue
		}
		r.report.ValidRows++
		if warned[c.Row] {
			r.report.WarnedRows++
		}
		r.report.Records = append(r.report.Records, c.Record)
	}
}

// sortFindings orders row findings by row, keeping each row's findings in the
// order they were produced. Batch findings (row 0) go last.
func sortFindings(findings []model.Finding) {
	slices.SortStableFunc(findings, func(a, b model.Finding) int {
		switch {
		case a.Row == b.Row:
			return 0
		case a.Row == 0:
			return 1
		case b.Row == 0:
			return -1
		}
		return a.Row - b.Row
	})
}

func headerFindings(err error) []model.Finding {
	var missing *budgetcsv.MissingHeaderError
	if errors.As(err, &missing) {
		out := make([]model.Finding, 0, len(missing.Missing))
		for _, h := range missing.Missing {
			out = append(out, model.Finding{
				Severity: model.SeverityError,
				Kind:     model.KindMissingHeader,
				Field:    budgetcsv.FieldFor(h),
				Value:    h,
				Message:  "coluna obrigatória ausente: " + h,
			})
		}
		return out
	}
	return []model.Finding{{
		Severity: model.SeverityError,
		Kind:     model.KindEmptyInput,
		Message:  "arquivo vazio ou ilegível",
	}}
}

// ExportRecords renders records in the sheet format ValidateAndCorrect reads.
// Amounts are always written in reais. Text is normalised on the way out, so a
// hand-built record with stray whitespace or double quotes comes back cleaned.
func (p *Pipeline) ExportRecords(records []model.BudgetRecord) string {
	return budgetcsv.Export(records, budgetcsv.ExportOptions{Scale: p.opts.Rules.Scale})
}

// ValidateAndCorrect runs a pipeline built from DefaultOptions.
func ValidateAndCorrect(raw string) model.Report {
	return New(DefaultOptions()).ValidateAndCorrect(raw)
}

// ExportRecords exports with DefaultOptions.
func ExportRecords(records []model.BudgetRecord) string {
	return New(DefaultOptions()).ExportRecords(records)
}
