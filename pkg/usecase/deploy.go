package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Deploy stages the plugin files into the deploy target directory,
// replacing a previous staging.
func (uc *releaseUseCase) Deploy(ctx context.Context) (*model.DeployResult, error) {
	logger := ctxlog.From(ctx)

	files, err := uc.collectFiles(ctx)
	if err != nil {
		return nil, err
	}

	stageDir := uc.manifest.StageDir()
	logger.Info("Staging plugin files",
		"stage_dir", stageDir,
		"file_count", len(files),
	)

	if err := uc.clearStageDir(stageDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create staging directory",
			goerr.V("dir", stageDir))
	}

	var totalSize int64
	names := make([]string, 0, len(files))
	for _, f := range files {
		dst := filepath.Join(stageDir, filepath.FromSlash(f.name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create staging subdirectory",
				goerr.V("name", f.name))
		}
		n, err := copyFile(f.src, dst)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stage file", goerr.V("name", f.name))
		}
		totalSize += n
		names = append(names, f.name)
	}

	logger.Info("Staged plugin files",
		"stage_dir", stageDir,
		"file_count", len(names),
		"total_size_bytes", totalSize,
	)

	return &model.DeployResult{
		Dir:   stageDir,
		Files: names,
		Size:  totalSize,
	}, nil
}

// clearStageDir removes a previous staging directory. A non-empty
// directory without the plugin metadata file is left alone: it is not
// ours to delete.
func (uc *releaseUseCase) clearStageDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to inspect staging directory", goerr.V("dir", dir))
	}

	if len(entries) > 0 {
		metaName := filepath.Base(uc.manifest.Plugin.Metadata)
		found := false
		for _, e := range entries {
			if e.Name() == metaName {
				found = true
				break
			}
		}
		if !found {
			return goerr.New("staging directory holds foreign files, refusing to clear it",
				goerr.V("dir", dir))
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return goerr.Wrap(err, "failed to clear staging directory", goerr.V("dir", dir))
	}
	return nil
}
