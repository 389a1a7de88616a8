package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

type fakeTours struct {
	mu      sync.Mutex
	calls   []TourOptions
	failFor map[string]error
}

func (f *fakeTours) GenerateTour(ctx context.Context, opts TourOptions) (*TourResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if err, ok := f.failFor[opts.Address]; ok {
		return nil, err
	}
	return &TourResult{Address: opts.Address, OutputPath: opts.OutputPath}, nil
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateBatchIsolatesFailures(t *testing.T) {
	file := writeBatchFile(t, `# weekend tours
10 Downing Street, London

Nonexistent Place
1600 Pennsylvania Ave
`)
	tours := &fakeTours{failFor: map[string]error{
		"Nonexistent Place": model.NewCoverageError("no streets found", nil),
	}}
	batch := NewBatchUseCase(tours, testLogger())

	result, err := batch.GenerateBatch(context.Background(), file, "", 1, 0)
	require.NoError(t, err)

	require.Len(t, result.Entries, 3, "comments and blank lines are skipped")
	assert.Equal(t, 2, result.Succeeded)

	assert.True(t, result.Entries[0].Succeeded())
	assert.False(t, result.Entries[1].Succeeded())
	assert.Equal(t, "Nonexistent Place", result.Entries[1].Address)
	assert.Equal(t, model.CategoryCoverage, result.Entries[1].Category)
	assert.True(t, result.Entries[2].Succeeded())
}

func TestGenerateBatchMissingFile(t *testing.T) {
	batch := NewBatchUseCase(&fakeTours{}, testLogger())
	_, err := batch.GenerateBatch(context.Background(), "/does/not/exist.txt", "", 1, 0)
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryInput))
}

func TestGenerateBatchEmptyFile(t *testing.T) {
	file := writeBatchFile(t, "# only comments\n\n")
	batch := NewBatchUseCase(&fakeTours{}, testLogger())
	_, err := batch.GenerateBatch(context.Background(), file, "", 1, 0)
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryInput))
}

func TestGenerateBatchOutputDir(t *testing.T) {
	file := writeBatchFile(t, "221B Baker St, London\n")
	dir := filepath.Join(t.TempDir(), "videos")
	tours := &fakeTours{}
	batch := NewBatchUseCase(tours, testLogger())

	result, err := batch.GenerateBatch(context.Background(), file, dir, 1, 7)
	require.NoError(t, err)

	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	require.Len(t, tours.calls, 1)
	assert.Equal(t, filepath.Join(dir, "221B Baker St_ London.mp4"), tours.calls[0].OutputPath)
	assert.Equal(t, int64(7), tours.calls[0].Seed)
	assert.Equal(t, tours.calls[0].OutputPath, result.Entries[0].OutputPath)
}

func TestGenerateBatchParallel(t *testing.T) {
	file := writeBatchFile(t, "addr one\naddr two\naddr three\naddr four\n")
	tours := &fakeTours{failFor: map[string]error{
		"addr three": model.NewProviderError("api quota exceeded", nil),
	}}
	batch := NewBatchUseCase(tours, testLogger())

	result, err := batch.GenerateBatch(context.Background(), file, "", 3, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Succeeded)
	require.Len(t, result.Entries, 4)
	// Entries keep file order regardless of completion order.
	assert.Equal(t, "addr one", result.Entries[0].Address)
	assert.Equal(t, "addr two", result.Entries[1].Address)
	assert.Equal(t, "addr three", result.Entries[2].Address)
	assert.Equal(t, "addr four", result.Entries[3].Address)
	assert.False(t, result.Entries[2].Succeeded())
	assert.Equal(t, model.CategoryProvider, result.Entries[2].Category)
}
