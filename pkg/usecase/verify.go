package usecase

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Verify inspects a built archive against the manifest: the entry set
// must match the staged file set exactly, entry paths must be safe to
// extract, and the embedded plugin metadata must parse.
func (uc *releaseUseCase) Verify(ctx context.Context, zipPath string) (*model.VerifyResult, error) {
	logger := ctxlog.From(ctx)

	files, err := uc.collectFiles(ctx)
	if err != nil {
		return nil, err
	}

	title := uc.manifest.Plugin.Title
	metaEntry := title + "/" + filepath.Base(uc.manifest.Plugin.Metadata)
	expected := make(map[string]bool, len(files))
	for _, f := range files {
		expected[title+"/"+f.name] = false
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archive", goerr.V("path", zipPath))
	}
	defer zr.Close()

	result := &model.VerifyResult{ZipPath: zipPath}
	var metaData []byte
	for _, zf := range zr.File {
		name := zf.Name
		if zf.FileInfo().IsDir() {
			continue
		}
		if !fs.ValidPath(name) || strings.Contains(name, `\`) {
			result.Invalid = append(result.Invalid, name)
			continue
		}
		if _, ok := expected[name]; !ok {
			result.Unexpected = append(result.Unexpected, name)
			continue
		}
		expected[name] = true

		if name == metaEntry {
			rc, err := zf.Open()
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read archive entry", goerr.V("entry", name))
			}
			metaData, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read archive entry", goerr.V("entry", name))
			}
		}
	}

	for name, seen := range expected {
		if !seen {
			result.Missing = append(result.Missing, name)
		}
	}
	sort.Strings(result.Missing)
	sort.Strings(result.Unexpected)
	sort.Strings(result.Invalid)

	if metaData != nil {
		meta, err := model.ParsePluginMetadata(metaData)
		if err != nil {
			logger.Warn("Archive metadata does not parse", "entry", metaEntry, "error", err)
			result.Invalid = append(result.Invalid, metaEntry)
		} else {
			result.Name = meta.Name
			result.Version = meta.Version
		}
	}

	logger.Info("Verified archive",
		"zip", zipPath,
		"ok", result.OK(),
		"missing", len(result.Missing),
		"unexpected", len(result.Unexpected),
		"invalid", len(result.Invalid),
	)
	return result, nil
}
