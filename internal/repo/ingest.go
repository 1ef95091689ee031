package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dits/internal/classify"
	"dits/internal/container"
	"dits/internal/decompress"
	"dits/internal/fastcdc"
	"dits/internal/manifest"
	"dits/internal/stage"

	"golang.org/x/sync/errgroup"
)

// AddResult is one file's outcome from Add.
type AddResult struct {
	Path string
	Err  error
}

// Add ingests each of paths (repository-relative) through
// classify -> [detect -> decompress] -> chunk -> object store -> manifest,
// and stages the result in the index. Distinct files are ingested by a
// bounded worker pool; a failure on one file never aborts the others,
// and the overall call only fails if saving the index itself fails.
func (r *Repository) Add(ctx context.Context, paths []string) ([]AddResult, error) {
	lock, err := stage.Acquire(r.DotDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	idx, err := r.LoadIndex()
	if err != nil {
		return nil, err
	}

	concurrency := r.Config.Chunking.QueueBound
	if concurrency <= 0 {
		concurrency = 64
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]AddResult, len(paths))
	entries := make([]stage.Entry, len(paths))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			e, err := r.ingestOne(gctx, p)
			results[i] = AddResult{Path: p, Err: err}
			if err == nil {
				entries[i] = e
			}
			return nil // per-file errors are reported, not propagated
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res.Err == nil {
			idx.Add(entries[i])
		}
	}
	if err := idx.Save(); err != nil {
		return results, err
	}
	return results, nil
}

// ingestOne runs the full detect/decompress/chunk/store pipeline for one
// path and returns its staged index entry.
func (r *Repository) ingestOne(_ context.Context, relPath string) (stage.Entry, error) {
	abs := filepath.Join(r.WorkDir, relPath)
	info, err := os.Stat(abs)
	if err != nil {
		return stage.Entry{}, fmt.Errorf("add %s: %w", relPath, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return stage.Entry{}, fmt.Errorf("add %s: %w", relPath, err)
	}

	prefixLen := len(data)
	if prefixLen > 8<<10 {
		prefixLen = 8 << 10
	}
	strategy := classify.Classify(relPath, data[:prefixLen], nil)

	if strategy == classify.GitText {
		id, err := r.Text.Store(data)
		if err != nil {
			return stage.Entry{}, fmt.Errorf("add %s: %w", relPath, err)
		}
		// GitText content never enters the chunk object store; the index
		// records the text engine's own opaque id in its place.
		return stage.Entry{
			Path:         relPath,
			Strategy:     strategy,
			Stat:         stage.NewStatCache(info),
			ManifestText: id.String(),
		}, nil
	}

	format := container.Detect(relPath, data[:prefixLen])
	if !r.Config.TransparentDecompression.Enabled {
		// Transparent decompression off: store the container opaquely
		// rather than unpacking it.
		format = container.FormatInfo{Outer: container.Generic, Handler: "generic"}
	}
	profile := r.profileFor(format)

	m, err := manifest.Build(r.Store, bytes.NewReader(data), int64(len(data)), format, info.Mode(), info.ModTime(), manifest.BuildOptions{
		Profile:           profile,
		DecompressOpts:    r.decompressOptions(),
		ComputeFileDigest: true,
	})
	if err != nil {
		return stage.Entry{}, fmt.Errorf("add %s: %w", relPath, err)
	}
	id, err := manifest.Store(r.Store, m)
	if err != nil {
		return stage.Entry{}, fmt.Errorf("add %s: %w", relPath, err)
	}

	return stage.Entry{
		Path:     relPath,
		Manifest: id,
		Strategy: strategy,
		Stat:     stage.NewStatCache(info),
	}, nil
}

// profileFor resolves the chunking profile for a detected format: the
// SQLite page-aligned profile for SQLite containers, else the
// configured profile.
func (r *Repository) profileFor(format container.FormatInfo) fastcdc.Profile {
	if format.Outer == container.SQLite {
		return fastcdc.SQLiteProfile(4096)
	}
	return r.Config.Chunking.Profile()
}

func (r *Repository) decompressOptions() decompress.Options {
	opts := decompress.DefaultOptions
	if r.Config.TransparentDecompression.MaxMemory > 0 {
		opts.MaxDecompressedBytes = r.Config.TransparentDecompression.MaxMemory
	}
	if r.Config.TransparentDecompression.MaxRatio > 0 {
		opts.MaxRatio = r.Config.TransparentDecompression.MaxRatio
	}
	return opts
}
