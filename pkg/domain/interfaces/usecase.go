package interfaces

import (
	"context"

	"github.com/psteco/hnat/pkg/domain/model"
)

// AnalyzeUseCase defines the habitat network batch analysis
type AnalyzeUseCase interface {
	// Run executes the batch over every network in the parameter table
	Run(ctx context.Context, req *model.AnalysisRequest) (*model.RunReport, error)
}

// ReleaseUseCase defines operations of the plugin release pipeline
type ReleaseUseCase interface {
	// Deploy stages the plugin files into the deploy target directory
	Deploy(ctx context.Context) (*model.DeployResult, error)

	// Package builds the dated distributable ZIP from the staged files
	Package(ctx context.Context) (*model.PackageResult, error)

	// Verify inspects a built archive against the manifest and metadata
	Verify(ctx context.Context, zipPath string) (*model.VerifyResult, error)

	// Publish uploads an archive to a GitHub release for the plugin version
	Publish(ctx context.Context, zipPath string) (*model.PublishResult, error)
}
