package interfaces

import (
	"context"

	"github.com/google/go-github/v75/github"
)

// ReleasePublisher defines operations against the GitHub release API
type ReleasePublisher interface {
	// EnsureRelease returns the release tagged tag, creating it when absent
	EnsureRelease(ctx context.Context, tag, name, body string) (*github.RepositoryRelease, error)

	// UploadAsset attaches the file to the release, replacing an asset
	// of the same name
	UploadAsset(ctx context.Context, releaseID int64, path string) (*github.ReleaseAsset, error)
}
