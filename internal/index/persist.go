package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/embedding"
	"github.com/finsight-group/finrag-cli/internal/model"
)

// ErrNotFound indicates no persisted index artifact exists at the path.
var ErrNotFound = eris.New("index: artifact not found")

const artifactVersion = 1

type artifact struct {
	Version int           `json:"version"`
	Chunks  []model.Chunk `json:"chunks"`
}

// Save writes the index artifact atomically: the chunks are written to a
// temp file in the target directory and renamed into place, so concurrent
// readers only ever observe a complete prior or current version.
func (ix *Index) Save(path string) error {
	data, err := json.Marshal(artifact{Version: artifactVersion, Chunks: ix.chunks})
	if err != nil {
		return eris.Wrap(err, "index: marshal artifact")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "index: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "index: create temp artifact")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "index: write temp artifact")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "index: close temp artifact")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "index: rename artifact to %s", path)
	}
	return nil
}

// Load reads a persisted index artifact. A missing file is ErrNotFound;
// anything else at the path that fails to parse is a corruption error,
// deliberately distinct from the missing-artifact case.
func Load(path string, embedder embedding.Embedder) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "path %s", path)
		}
		return nil, eris.Wrapf(err, "index: read artifact %s", path)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, eris.Wrapf(err, "index: corrupt artifact %s", path)
	}
	if art.Version != artifactVersion {
		return nil, eris.Errorf("index: unsupported artifact version %d in %s", art.Version, path)
	}

	ix := New(embedder)
	ix.chunks = art.Chunks
	return ix, nil
}

// LoadOrEmpty is the graceful-fallback policy branch: a missing artifact
// yields an empty, queryable index so the agent can operate before first
// indexing completes. Corruption errors still fail.
func LoadOrEmpty(path string, embedder embedding.Embedder) (*Index, error) {
	ix, err := Load(path, embedder)
	if err == nil {
		return ix, nil
	}
	if eris.Is(err, ErrNotFound) {
		zap.L().Warn("index artifact missing, starting empty", zap.String("path", path))
		return New(embedder), nil
	}
	return nil, err
}

// BuildOrLoad loads an existing artifact at path unless force is set, in
// which case (or when no artifact exists) it builds from pages and
// persists the result.
func BuildOrLoad(ctx context.Context, path string, pages []model.DocumentPage, embedder embedding.Embedder, force bool) (*Index, error) {
	if !force {
		ix, err := Load(path, embedder)
		if err == nil {
			zap.L().Info("index loaded", zap.String("path", path), zap.Int("chunks", ix.Len()))
			return ix, nil
		}
		if !eris.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	ix := New(embedder)
	if err := ix.Build(ctx, pages); err != nil {
		return nil, err
	}
	if err := ix.Save(path); err != nil {
		return nil, err
	}
	return ix, nil
}
