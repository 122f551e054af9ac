package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/indxflow/internal/model"
)

// Classifier classifies one text
type Classifier interface {
	Classify(ctx context.Context, text string) (model.ClassificationResult, error)
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(ctx context.Context, text string) (model.ClassificationResult, error)

// Classify calls f
func (f ClassifierFunc) Classify(ctx context.Context, text string) (model.ClassificationResult, error) {
	return f(ctx, text)
}

// ClassifyJob classifies the text at Index of a batch
type ClassifyJob struct {
	Index      int
	Text       string
	Classifier Classifier
}

// Execute executes the classification
func (j *ClassifyJob) Execute(ctx context.Context) Result {
	result, err := j.Classifier.Classify(ctx, j.Text)
	if err != nil {
		return &ItemResult{Index: j.Index, Text: j.Text, Error: err, ErrorMessage: err.Error()}
	}
	return &ItemResult{Index: j.Index, Text: j.Text, Result: &result}
}

// ItemResult is the outcome for one line of a batch
type ItemResult struct {
	Index        int                         `json:"index"`
	Text         string                      `json:"text"`
	Result       *model.ClassificationResult `json:"result,omitempty"`
	Error        error                       `json:"-"`
	ErrorMessage string                      `json:"error,omitempty"`
}

// GetError returns the classification error
func (r *ItemResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies many texts concurrently
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(classifier Classifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// ProcessTexts classifies texts and returns results in input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*ItemResult {
	if len(texts) == 0 {
		return []*ItemResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, text := range texts {
			pool.Submit(&ClassifyJob{Index: i, Text: text, Classifier: b.classifier})
		}
	}()

	// Submit runs concurrently with collection so a full queue cannot deadlock
	results := collect(pool, len(texts))

	items := make([]*ItemResult, 0, len(texts))
	done := make(map[int]bool, len(results))
	for _, r := range results {
		item := r.(*ItemResult)
		done[item.Index] = true
		items = append(items, item)
	}
	if len(items) < len(texts) {
		err := fmt.Errorf("batch cancelled: %w", context.Cause(ctx))
		for i, text := range texts {
			if !done[i] {
				items = append(items, &ItemResult{Index: i, Text: text, Error: err, ErrorMessage: err.Error()})
			}
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })

	return items
}

// collect reads n results, then closes the pool
func collect(pool *Pool, n int) []Result {
	results := make([]Result, 0, n)
	for len(results) < n {
		select {
		case r := <-pool.results:
			results = append(results, r)
		case <-pool.ctx.Done():
			pool.Shutdown()
			return results
		}
	}
	pool.Shutdown()
	return results
}

// ProcessFile reads texts from a file and classifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ItemResult, error) {
	texts, err := ReadLines(filePath)
	if err != nil {
		return nil, fmt.Errorf("read texts: %w", err)
	}

	return b.ProcessTexts(ctx, texts), nil
}

// ReadLines reads one description per line, skipping blanks, # comments and duplicates
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
