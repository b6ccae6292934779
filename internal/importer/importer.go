// Package importer runs the validation pipeline over an inbox of budget sheets.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/orcafacil/orcafacil/internal/importlog"
	"github.com/orcafacil/orcafacil/internal/logger"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/store"
)

// FileInfo describes a CSV file in the inbox.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// ProcessedDir is the inbox subdirectory files are moved to once stored.
const ProcessedDir = "processed"

// Scan returns the CSV files directly under dir. A missing dir is empty.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves dir/name to dir/processed/name.
func MarkProcessed(dir, name string) error {
	dstDir := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(dstDir, name)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return nil
}

// Result is the outcome for one file.
type Result struct {
	File   string
	Status importlog.Status
	Report model.Report
	Stored int
	Err    error
}

// Service imports every sheet in Inbox. LogRoot is where the import log lives.
type Service struct {
	Pipeline *pipeline.Pipeline
	Store    store.Inserter
	Inbox    string
	LogRoot  string
	Now      func() time.Time
}

// Run processes the inbox in name order. A file is moved to processed/ only
// when its header was readable and its valid rows were stored. Storage errors
// are kept on the file's Result; Run itself fails only on inbox or log I/O.
func (s *Service) Run(ctx context.Context) ([]Result, error) {
	log := logger.FromContext(ctx)
	now := s.Now
	if now == nil {
		now = time.Now
	}

	files, err := Scan(s.Inbox)
	if err != nil {
		return nil, err
	}

	var (
		results []Result
		entries []importlog.Entry
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.importFile(ctx, f)
		if res.Status == importlog.StatusStored {
			if err := MarkProcessed(s.Inbox, f.Name); err != nil {
				res.Status, res.Err = importlog.StatusFailed, err
			}
		}

		ev := log.Info()
		if res.Err != nil {
			ev = log.Error().Err(res.Err)
		}
		ev.Str("file", f.Name).
			Str("status", string(res.Status)).
			Int("valid_rows", res.Report.ValidRows).
			Int("invalid_rows", res.Report.InvalidRows).
			Int("stored", res.Stored).
			Msg("sheet imported")

		results = append(results, res)
		entries = append(entries, logEntry(now(), res))
	}

	if len(entries) > 0 {
		if err := importlog.Append(s.LogRoot, entries); err != nil {
			return results, fmt.Errorf("appending import log: %w", err)
		}
	}
	return results, nil
}

// Preview runs one file through validation and the store without moving it or
// writing the import log.
func (s *Service) Preview(ctx context.Context, f FileInfo) Result {
	return s.importFile(ctx, f)
}

func (s *Service) importFile(ctx context.Context, f FileInfo) Result {
	res := Result{File: f.Name}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		res.Status, res.Err = importlog.StatusFailed, fmt.Errorf("reading %s: %w", f.Name, err)
		return res
	}

	res.Report = s.Pipeline.ValidateAndCorrect(string(data))
	if headerFailed(res.Report) {
		res.Status = importlog.StatusRejected
		return res
	}
	if len(res.Report.Records) > 0 {
		n, err := s.Store.InsertMany(ctx, res.Report.Records)
		res.Stored = n
		if err != nil {
			res.Status, res.Err = importlog.StatusFailed, err
			return res
		}
	}
	res.Status = importlog.StatusStored
	return res
}

// headerFailed reports whether the run stopped before reading any row.
func headerFailed(r model.Report) bool {
	return !slices.Contains(r.Trace, model.StateHeadersParsed)
}

func logEntry(ts time.Time, r Result) importlog.Entry {
	detail := fmt.Sprintf("%d errors, %d warnings", len(r.Report.Errors()), len(r.Report.Warnings()))
	if r.Err != nil {
		detail = r.Err.Error()
	}
	return importlog.Entry{
		Timestamp:   ts,
		File:        r.File,
		Status:      r.Status,
		TotalRows:   r.Report.TotalRows,
		ValidRows:   r.Report.ValidRows,
		InvalidRows: r.Report.InvalidRows,
		Stored:      r.Stored,
		Detail:      detail,
	}
}
