package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// BatchEntry records the outcome for one address in a batch run.
type BatchEntry struct {
	Address    string
	OutputPath string
	Category   model.ErrorCategory
	Err        error
}

// Succeeded reports whether the address produced a video.
func (e *BatchEntry) Succeeded() bool {
	return e.Err == nil
}

// BatchResult is the per-address outcome list plus a success count.
type BatchResult struct {
	Entries   []BatchEntry
	Succeeded int
}

// BatchUseCase generates tours for every address in a batch file. One bad
// address never aborts the batch; its failure is recorded and the run moves
// on.
type BatchUseCase interface {
	GenerateBatch(ctx context.Context, batchFile, outputDir string, parallel int, seed int64) (*BatchResult, error)
}

type batchUseCaseImpl struct {
	tours  TourUseCase
	logger *logrus.Logger
}

// NewBatchUseCase creates the batch runner.
func NewBatchUseCase(tours TourUseCase, logger *logrus.Logger) BatchUseCase {
	return &batchUseCaseImpl{tours: tours, logger: logger}
}

// GenerateBatch reads one address per line from batchFile (blank lines and
// '#' comments skipped) and generates a tour for each. parallel <= 1 runs
// sequentially; higher values run addresses concurrently. Addresses share
// only the content-addressed cache directory, which tolerates concurrent
// independent-key writes.
func (b *batchUseCaseImpl) GenerateBatch(ctx context.Context, batchFile, outputDir string, parallel int, seed int64) (*BatchResult, error) {
	addresses, err := readAddresses(batchFile)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, model.NewInputError("no addresses found in batch file", nil)
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	b.logger.WithField("addresses", len(addresses)).Info("Starting batch run")

	entries := make([]BatchEntry, len(addresses))
	if parallel <= 1 {
		for i, address := range addresses {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entries[i] = b.runOne(ctx, i, len(addresses), address, outputDir, seed)
		}
	} else {
		var mu sync.Mutex
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(parallel)
		for i, address := range addresses {
			i, address := i, address
			group.Go(func() error {
				entry := b.runOne(groupCtx, i, len(addresses), address, outputDir, seed)
				mu.Lock()
				entries[i] = entry
				mu.Unlock()
				return nil // per-address failures stay in the entry
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	result := &BatchResult{Entries: entries}
	for i := range entries {
		if entries[i].Succeeded() {
			result.Succeeded++
		}
	}
	b.logger.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"total":     len(entries),
	}).Info("Batch run finished")
	return result, nil
}

func (b *batchUseCaseImpl) runOne(ctx context.Context, index, total int, address, outputDir string, seed int64) BatchEntry {
	b.logger.WithFields(logrus.Fields{
		"address":  address,
		"progress": fmt.Sprintf("%d/%d", index+1, total),
	}).Info("Processing address")

	opts := TourOptions{Address: address, Seed: seed}
	if outputDir != "" {
		opts.OutputPath = filepath.Join(outputDir, SafeFileName(address)+".mp4")
	}
	result, err := b.tours.GenerateTour(ctx, opts)
	if err != nil {
		b.logger.WithError(err).WithField("address", address).Error("Address failed")
		return BatchEntry{Address: address, Category: model.CategoryOf(err), Err: err}
	}
	return BatchEntry{Address: address, OutputPath: result.OutputPath}
}

func readAddresses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewInputError(fmt.Sprintf("batch file not found: %s", path), err)
	}
	var addresses []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addresses = append(addresses, line)
	}
	return addresses, nil
}
