package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/wikitrust/internal/model"
)

// Scanner produces the analysis of one page
type Scanner interface {
	ProduceAnalysis(ctx context.Context, title string) (*model.Report, error)
}

// AnalysisJob represents one page analysis
type AnalysisJob struct {
	Title   string
	Scanner Scanner
}

// Execute runs the analysis
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	report, err := j.Scanner.ProduceAnalysis(ctx, j.Title)
	return &BatchResult{
		Title:  j.Title,
		Report: report,
		Error:  err,
	}
}

// BatchResult is the outcome of one page analysis
type BatchResult struct {
	Title  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many pages concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
}

// ProcessTitles analyzes titles concurrently. Results follow the input
// order; titles skipped by cancellation carry the context error.
func (b *BatchProcessor) ProcessTitles(ctx context.Context, titles []string) []*BatchResult {
	if len(titles) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, title := range titles {
		if !pool.Submit(&AnalysisJob{Title: title, Scanner: b.scanner}) {
			break
		}
	}

	results := pool.Wait()

	batch := make([]*BatchResult, len(titles))
	for i, title := range titles {
		if i < len(results) && results[i] != nil {
			batch[i] = results[i].(*BatchResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		batch[i] = &BatchResult{Title: title, Error: fmt.Errorf("not analyzed: %w", err)}
	}
	return batch
}

// ProcessFile reads titles from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	titles, err := ReadTitlesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}

	return b.ProcessTitles(ctx, titles), nil
}

// ReadTitlesFromFile reads page titles or article URLs, one per line.
// Blank lines and # comments are skipped and duplicates dropped.
func ReadTitlesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var titles []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			titles = append(titles, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return titles, nil
}
