package config

// Command line option names. Shared here so command packages and config
// processing agree on spelling.
const (
	OptBackoff      = "backoff"
	OptChunkSize    = "chunk-size"
	OptConnTimeout  = "connect-timeout"
	OptDryRun       = "dry-run"
	OptExclude      = "exclude"
	OptExtensions   = "extensions"
	OptFields       = "fields"
	OptForce        = "force"
	OptGlob         = "glob"
	OptInclude      = "include"
	OptLogFile      = "log-file"
	OptLoggingLevel = "log-level"
	OptMaxItems     = "max"
	OptMaxPages     = "max-pages"
	OptNoProgress   = "no-progress"
	OptOutput       = "out"
	OptOutputDir    = "output-dir"
	OptQuery        = "query"
	OptResume       = "resume"
	OptRetries      = "retries"
	OptRows         = "rows"
	OptSkipExisting = "skip-existing"
	OptSleep        = "sleep"
	OptUserAgent    = "user-agent"
	OptVerbose      = "verbose"
)
