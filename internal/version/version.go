package version

// Set at release time via -ldflags, e.g.
// -X github.com/hugsndnugs/SCKillFeed/internal/version.Version=v1.2.0
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
