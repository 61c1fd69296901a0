package matrix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	"github.com/input-output-hk/catalyst-forge-release/naming"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) PutJSON(_ context.Context, key string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = []byte("{}")
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

// buildProducer packages a fake binary for each cell, failing the platforms
// listed in failPlatforms.
func buildProducer(namer *naming.Namer, failPlatforms map[string]bool) Producer {
	return ProducerFunc(func(_ context.Context, cell Cell, c classify.Classification) (*Package, error) {
		if failPlatforms[cell.Platform+"/"+cell.Arch] {
			return nil, fmt.Errorf("toolchain failed for %s/%s", cell.Platform, cell.Arch)
		}
		name := naming.Zip(namer.PackageName(c, cell.Platform, cell.Arch, "abcdef1"))
		data := []byte("binary-" + cell.Platform + "-" + cell.Arch)
		return &Package{Name: name, Data: data, Size: int64(len(data)), Cell: cell}, nil
	})
}

func TestRunner_AllCellsSucceed(t *testing.T) {
	namer := naming.New("forge")
	store := newMemStore()
	pub := publish.NewPublisher(store, namer, false, nil)
	runner := NewRunner(buildProducer(namer, nil), pub, nil)

	c := classify.Classification{Type: classify.BuildRelease, Version: "1.2.3"}
	cells := DefaultCells()

	results, err := runner.Run(context.Background(), cells, c)
	require.NoError(t, err)
	require.Len(t, results, len(cells), "one result per cell")

	for i, res := range results {
		assert.Equal(t, cells[i], res.Cell, "results keep input order")
		assert.True(t, res.Succeeded())
		require.NotNil(t, res.Receipt)
		assert.NotEmpty(t, res.Receipt.PrimaryKey)
	}
}

func TestRunner_FailedCellDoesNotCancelSiblings(t *testing.T) {
	namer := naming.New("forge")
	store := newMemStore()
	pub := publish.NewPublisher(store, namer, false, nil)
	runner := NewRunner(buildProducer(namer, map[string]bool{"darwin/arm64": true}), pub, nil)

	c := classify.Classification{Type: classify.BuildRelease, Version: "1.2.3"}
	cells := DefaultCells()

	results, err := runner.Run(context.Background(), cells, c)
	require.Error(t, err, "summary error reports the failed cell")
	require.Len(t, results, len(cells), "every cell accounted for, including the failure")

	var succeeded, failed int
	for _, res := range results {
		if res.Succeeded() {
			succeeded++
		} else {
			failed++
			assert.Equal(t, "darwin", res.Cell.Platform)
		}
	}
	assert.Equal(t, len(cells)-1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestRunner_AllCellsFail(t *testing.T) {
	namer := naming.New("forge")
	fail := map[string]bool{}
	for _, cell := range DefaultCells() {
		fail[cell.Platform+"/"+cell.Arch] = true
	}
	runner := NewRunner(buildProducer(namer, fail), nil, nil)

	results, err := runner.Run(context.Background(), DefaultCells(),
		classify.Classification{Type: classify.BuildRelease, Version: "1.2.3"})
	require.Error(t, err)
	for _, res := range results {
		assert.False(t, res.Succeeded())
		assert.Error(t, res.Err)
	}
}

func TestRunner_NilPublisherOnlyProduces(t *testing.T) {
	namer := naming.New("forge")
	runner := NewRunner(buildProducer(namer, nil), nil, nil)

	results, err := runner.Run(context.Background(), DefaultCells()[:1],
		classify.Classification{Type: classify.BuildDevelopment, Version: "dev-abcdef1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded())
	assert.Nil(t, results[0].Receipt)
}

func TestCellResult_Succeeded(t *testing.T) {
	assert.False(t, CellResult{}.Succeeded())
	assert.False(t, CellResult{Err: errors.New("x")}.Succeeded())
	assert.True(t, CellResult{Package: &Package{Name: "p.zip"}}.Succeeded())
}

func TestDefaultCells(t *testing.T) {
	cells := DefaultCells()
	require.Len(t, cells, 5)

	seen := map[string]bool{}
	for _, cell := range cells {
		key := cell.Platform + "/" + cell.Arch
		assert.False(t, seen[key], "matrix cells must be unique")
		seen[key] = true
		assert.NotEmpty(t, cell.Triple)
		assert.NotEmpty(t, cell.OS)
	}
	assert.True(t, seen["linux/amd64"], "primary platform present")
}
