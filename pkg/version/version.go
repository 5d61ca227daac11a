package version

// Version and GitCommit are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/zoneforge/fwctl/pkg/version.Version=v1.0.0 \
//	  -X github.com/zoneforge/fwctl/pkg/version.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// String returns a human-readable version string, e.g. "v1.0.0 (abc1234)".
func String() string {
	return Version + " (" + GitCommit + ")"
}
