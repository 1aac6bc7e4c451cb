package model

// DeployResult represents the outcome of staging plugin files
type DeployResult struct {
	Dir   string   // Staging directory the files were copied into
	Files []string // Staged files, slash-separated and relative to Dir
	Size  int64    // Total size in bytes
}

// PackageResult represents a built distributable archive
type PackageResult struct {
	ZipPath  string   // Path of the written ZIP
	Entries  []string // Archive entries in written order
	Size     int64    // ZIP size in bytes
	SHA256   string   // Hex digest of the ZIP
	Checksum string   // Path of the .sha256 sidecar file
}

// VerifyResult represents an archive inspection against the manifest
type VerifyResult struct {
	ZipPath    string   // Inspected archive
	Name       string   // Plugin name from the embedded metadata
	Version    string   // Plugin version from the embedded metadata
	Missing    []string // Expected entries absent from the archive
	Unexpected []string // Archive entries the manifest does not list
	Invalid    []string // Entries rejected for unsafe paths
}

// OK reports whether the archive matches the manifest exactly.
func (v *VerifyResult) OK() bool {
	return len(v.Missing) == 0 && len(v.Unexpected) == 0 && len(v.Invalid) == 0
}

// PublishResult represents an uploaded GitHub release asset
type PublishResult struct {
	Tag        string // Release tag, v-prefixed plugin version
	ReleaseURL string // HTML URL of the release
	AssetName  string // Uploaded archive file name
	AssetURL   string // Browser download URL of the asset
}
