package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Publish verifies an archive and uploads it to the GitHub release for
// the plugin version embedded in its metadata. The release is created
// when it does not exist yet; a same-named asset is replaced.
func (uc *releaseUseCase) Publish(ctx context.Context, zipPath string) (*model.PublishResult, error) {
	logger := ctxlog.From(ctx)

	if uc.publisher == nil {
		return nil, goerr.New("no release publisher configured")
	}

	verified, err := uc.Verify(ctx, zipPath)
	if err != nil {
		return nil, err
	}
	if !verified.OK() {
		return nil, goerr.New("archive failed verification",
			goerr.V("missing", verified.Missing),
			goerr.V("unexpected", verified.Unexpected),
			goerr.V("invalid", verified.Invalid),
		)
	}

	tag := "v" + verified.Version
	releaseName := fmt.Sprintf("%s %s", verified.Name, verified.Version)

	rel, err := uc.publisher.EnsureRelease(ctx, tag, releaseName, "")
	if err != nil {
		return nil, err
	}
	logger.Info("Resolved release", "tag", tag, "release_id", rel.GetID())

	asset, err := uc.publisher.UploadAsset(ctx, rel.GetID(), zipPath)
	if err != nil {
		return nil, err
	}

	if checksum := zipPath + ".sha256"; fileExists(checksum) {
		if _, err := uc.publisher.UploadAsset(ctx, rel.GetID(), checksum); err != nil {
			return nil, goerr.Wrap(err, "failed to upload checksum asset",
				goerr.V("path", checksum))
		}
	}

	logger.Info("Published archive",
		"tag", tag,
		"asset", asset.GetName(),
		"url", asset.GetBrowserDownloadURL(),
	)

	return &model.PublishResult{
		Tag:        tag,
		ReleaseURL: rel.GetHTMLURL(),
		AssetName:  asset.GetName(),
		AssetURL:   asset.GetBrowserDownloadURL(),
	}, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
