package usecase

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/interfaces"
	"github.com/psteco/hnat/pkg/domain/model"
)

type releaseUseCase struct {
	manifest  *model.Manifest
	publisher interfaces.ReleasePublisher
	now       func() time.Time
}

// ReleaseOption configures the release pipeline
type ReleaseOption func(*releaseUseCase)

// WithPublisher wires the GitHub release publisher used by Publish
func WithPublisher(p interfaces.ReleasePublisher) ReleaseOption {
	return func(uc *releaseUseCase) {
		uc.publisher = p
	}
}

// WithClock overrides the clock that dates archive names
func WithClock(now func() time.Time) ReleaseOption {
	return func(uc *releaseUseCase) {
		uc.now = now
	}
}

// NewRelease creates the plugin release pipeline for one manifest
func NewRelease(manifest *model.Manifest, options ...ReleaseOption) interfaces.ReleaseUseCase {
	uc := &releaseUseCase{
		manifest: manifest,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}

// stagedFile is one file the plugin ships: where it comes from and its
// name inside the staging directory.
type stagedFile struct {
	src  string
	name string
}

// collectFiles resolves the manifest into the file set the plugin
// ships: every .py under source_dir keeping its relative path, the
// metadata file and the listed docs. Names are slash separated.
func (uc *releaseUseCase) collectFiles(ctx context.Context) ([]stagedFile, error) {
	logger := ctxlog.From(ctx)
	srcDir := uc.manifest.Resolve(uc.manifest.Plugin.SourceDir)

	var files []stagedFile
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to scan plugin source directory",
				goerr.V("dir", srcDir))
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			logger.Warn("Skipping symlink", "path", path)
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve source file path",
				goerr.V("path", path))
		}
		files = append(files, stagedFile{src: path, name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, goerr.New("no plugin sources found", goerr.V("dir", srcDir))
	}

	metaPath := uc.manifest.Resolve(uc.manifest.Plugin.Metadata)
	if _, err := os.Stat(metaPath); err != nil {
		return nil, goerr.Wrap(err, "plugin metadata not found", goerr.V("path", metaPath))
	}
	files = append(files, stagedFile{src: metaPath, name: filepath.Base(metaPath)})

	for _, doc := range uc.manifest.Plugin.Docs {
		docPath := uc.manifest.Resolve(doc)
		if _, err := os.Stat(docPath); err != nil {
			return nil, goerr.Wrap(err, "plugin doc not found", goerr.V("path", docPath))
		}
		files = append(files, stagedFile{src: docPath, name: filepath.Base(doc)})
	}

	seen := make(map[string]string, len(files))
	for _, f := range files {
		if prev, ok := seen[f.name]; ok {
			return nil, goerr.New("two plugin files would stage under the same name",
				goerr.V("name", f.name), goerr.V("first", prev), goerr.V("second", f.src))
		}
		seen[f.name] = f.src
	}
	return files, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open source file", goerr.V("path", src))
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create destination file", goerr.V("path", dst))
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, goerr.Wrap(err, "failed to copy file", goerr.V("src", src), goerr.V("dst", dst))
	}
	if err := out.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to close destination file", goerr.V("path", dst))
	}
	return n, nil
}
