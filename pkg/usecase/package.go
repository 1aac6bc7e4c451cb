package usecase

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Package builds the distributable ZIP from the staged plugin files.
// The archive name carries the packaging date and every entry sits
// under a top-level folder named after the plugin title, the layout
// the QGIS plugin manager expects from "Install from ZIP".
func (uc *releaseUseCase) Package(ctx context.Context) (*model.PackageResult, error) {
	logger := ctxlog.From(ctx)

	stageDir := uc.manifest.StageDir()
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return nil, goerr.Wrap(err, "staging directory not readable, run deploy first",
			goerr.V("dir", stageDir))
	}
	if len(entries) == 0 {
		return nil, goerr.New("staging directory is empty, run deploy first",
			goerr.V("dir", stageDir))
	}

	title := uc.manifest.Plugin.Title
	distDir := uc.manifest.Resolve(uc.manifest.Package.DistDir)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create dist directory", goerr.V("dir", distDir))
	}

	zipName := fmt.Sprintf("%s_%s.zip", title, uc.now().Format("2006-01-02"))
	zipPath := filepath.Join(distDir, zipName)

	f, err := os.Create(zipPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create archive", goerr.V("path", zipPath))
	}
	defer f.Close()

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hash))

	names := make([]string, 0, len(entries))
	err = filepath.WalkDir(stageDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk staging directory", goerr.V("dir", stageDir))
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(stageDir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve staged file path", goerr.V("path", path))
		}
		entryName := title + "/" + filepath.ToSlash(rel)
		w, err := zw.Create(entryName)
		if err != nil {
			return goerr.Wrap(err, "failed to add archive entry", goerr.V("entry", entryName))
		}
		in, err := os.Open(path)
		if err != nil {
			return goerr.Wrap(err, "failed to open staged file", goerr.V("name", rel))
		}
		if _, err := io.Copy(w, in); err != nil {
			in.Close()
			return goerr.Wrap(err, "failed to write archive entry", goerr.V("entry", entryName))
		}
		in.Close()
		names = append(names, entryName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize archive", goerr.V("path", zipPath))
	}
	if err := f.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close archive", goerr.V("path", zipPath))
	}

	st, err := os.Stat(zipPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat archive", goerr.V("path", zipPath))
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	checksumPath := zipPath + ".sha256"
	checksum := fmt.Sprintf("%s  %s\n", digest, zipName)
	if err := os.WriteFile(checksumPath, []byte(checksum), 0o644); err != nil {
		return nil, goerr.Wrap(err, "failed to write checksum file", goerr.V("path", checksumPath))
	}

	logger.Info("Packaged plugin",
		"zip", zipPath,
		"entry_count", len(names),
		"size_bytes", st.Size(),
		"sha256", digest,
	)

	return &model.PackageResult{
		ZipPath:  zipPath,
		Entries:  names,
		Size:     st.Size(),
		SHA256:   digest,
		Checksum: checksumPath,
	}, nil
}
