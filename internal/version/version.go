package version

// Build-time metadata. Overridable via -ldflags "-X amora-bot/internal/version.BuildDate=...".
var (
	AppName     = "Amora"
	AppFullName = "Amora Companion Bot"
	AppVersion  = "0.3.0"
	BuildDate   = "unknown"
)
