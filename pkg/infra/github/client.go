package github

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/interfaces"
)

type client struct {
	gh    *github.Client
	owner string
	repo  string
}

// Option configures the GitHub client
type Option func(*client) error

// WithBaseURL points the client at a different API endpoint, mainly
// for tests against a local server.
func WithBaseURL(raw string) Option {
	return func(c *client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return goerr.Wrap(err, "invalid API base URL", goerr.V("url", raw))
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.gh.BaseURL = u
		c.gh.UploadURL = u
		return nil
	}
}

// NewClient creates a release publisher for one repository,
// authenticated with a personal access token
func NewClient(token, owner, repo string, options ...Option) (interfaces.ReleasePublisher, error) {
	if token == "" {
		return nil, goerr.New("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, goerr.New("GitHub repository is required",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}

	c := &client{
		gh:    github.NewClient(nil).WithAuthToken(token),
		owner: owner,
		repo:  repo,
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// EnsureRelease returns the release tagged tag, creating it when absent
func (c *client) EnsureRelease(ctx context.Context, tag, name, body string) (*github.RepositoryRelease, error) {
	rel, resp, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err == nil {
		return rel, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return nil, goerr.Wrap(err, "failed to look up release",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo), goerr.V("tag", tag))
	}

	rel, _, err = c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, &github.RepositoryRelease{
		TagName: github.Ptr(tag),
		Name:    github.Ptr(name),
		Body:    github.Ptr(body),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create release",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo), goerr.V("tag", tag))
	}
	return rel, nil
}

// UploadAsset attaches the file to the release, replacing an existing
// asset of the same name
func (c *client) UploadAsset(ctx context.Context, releaseID int64, path string) (*github.ReleaseAsset, error) {
	name := filepath.Base(path)

	assets, _, err := c.gh.Repositories.ListReleaseAssets(ctx, c.owner, c.repo, releaseID,
		&github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list release assets",
			goerr.V("release_id", releaseID))
	}
	for _, asset := range assets {
		if asset.GetName() == name {
			if _, err := c.gh.Repositories.DeleteReleaseAsset(ctx, c.owner, c.repo, asset.GetID()); err != nil {
				return nil, goerr.Wrap(err, "failed to replace existing asset",
					goerr.V("asset", name), goerr.V("asset_id", asset.GetID()))
			}
			break
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open asset", goerr.V("path", path))
	}
	defer f.Close()

	asset, _, err := c.gh.Repositories.UploadReleaseAsset(ctx, c.owner, c.repo, releaseID,
		&github.UploadOptions{Name: name}, f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload asset",
			goerr.V("release_id", releaseID), goerr.V("path", path))
	}
	return asset, nil
}
