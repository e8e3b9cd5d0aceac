package dircast

// InitLogging applies verbose level and debug flags - for CLI use
func InitLogging(level int, flagsStr string) {
	SetVerboseLevel(level)
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
	if globalVerboseLevel > 0 {
		VerboseLog(1, "Logging initialised (level %d, debug %q)", level, flagsStr)
	}
}

// GetDebugEnabled returns whether a debug flag is enabled - public alternative to IsDebugEnabled
func GetDebugEnabled(flag string) bool {
	return IsDebugEnabled(flag)
}

// GetVerbose returns the current verbose level - public alternative
func GetVerbose() int {
	return GetVerboseLevel()
}
