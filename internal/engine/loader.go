package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"distiller/internal/logging"
	"distiller/internal/types"
)

// =============================================================================
// DOCUMENT LOADER
// =============================================================================

// loadParallelism bounds concurrent file reads. Reads are the only parallel
// part of a run; everything downstream is single-threaded by design.
const loadParallelism = 4

// loadableExts are the plain-text formats the loader accepts. Binary formats
// are converted upstream by the collaborator that owns file handling.
var loadableExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// LoadDocuments reads every loadable file under dir concurrently. Unreadable
// files are reported in the returned error list, not raised: the engine's
// input-error policy is degrade, never fail. Documents come back sorted by
// name so runs are order-independent of directory listing.
func LoadDocuments(ctx context.Context, dir string) ([]types.Document, []string) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []string{fmt.Sprintf("cannot read document directory: %v", err)}
	}

	var paths []string
	for _, e := range dirEntries {
		if e.IsDir() || !loadableExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	var (
		mu      sync.Mutex
		docs    []types.Document
		loadErr []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadParallelism)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				loadErr = append(loadErr, fmt.Sprintf("cannot read %s: %v", filepath.Base(path), err))
				return nil
			}
			docs = append(docs, types.Document{
				Name:     filepath.Base(path),
				ByteSize: len(data),
				Text:     string(data),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		loadErr = append(loadErr, fmt.Sprintf("document loading interrupted: %v", err))
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	sort.Strings(loadErr)

	logging.Get(logging.CategoryEngine).Debug("documents loaded",
		zap.Int("files", len(paths)),
		zap.Int("loaded", len(docs)),
		zap.Int("errors", len(loadErr)))
	return docs, loadErr
}
