package version

// Version is the current version of the backtest engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/IvanHuYY/Stockbot/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.4.0"

// GetVersion returns the current engine version.
func GetVersion() string {
	return Version
}
