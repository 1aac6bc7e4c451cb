package types

// Version is the hnat build version. Overridden at release time via
// -ldflags="-X github.com/psteco/hnat/pkg/domain/types.Version=...".
var Version = "dev"
