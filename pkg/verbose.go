package dircast

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

var (
	globalVerboseLevel int
	debugFlags         map[string]bool
	logOutput          io.Writer = os.Stderr
	logMutex           sync.Mutex
)

// SetVerboseLevel sets the global verbose level
func SetVerboseLevel(level int) {
	globalVerboseLevel = level
}

// GetVerboseLevel returns the current verbose level
func GetVerboseLevel() int {
	return globalVerboseLevel
}

// SetLogOutput redirects verbose and debug output, nil restores stderr
func SetLogOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
}

// VerboseEnter logs function entry at level 3+ and returns a defer function for exit logging
func VerboseEnter() func() {
	if globalVerboseLevel < 3 {
		return func() {}
	}

	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	writeLog("[TRACE] Entering function: %s\n", funcName)

	return func() {
		writeLog("[TRACE] Exiting function: %s\n", funcName)
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if globalVerboseLevel < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	writeLog("[VERBOSE-%d] %s", level, msg)
}

// DebugLog logs a message tagged with flag when that debug flag is enabled
func DebugLog(flag string, format string, args ...interface{}) {
	if !IsDebugEnabled(flag) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	writeLog("[%s] %s", strings.ToUpper(flag), msg)
}

// Warnf prints a warning regardless of verbose level
func Warnf(format string, args ...interface{}) {
	writeLog("Warning: "+format+"\n", args...)
}

func writeLog(format string, args ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintf(logOutput, format, args...)
}

// DebugFlags lists the flags the library logs under
var DebugFlags = []string{"scan", "hash", "compare", "dupes", "codec"}

func isKnownDebugFlag(flag string) bool {
	name, _, _ := strings.Cut(flag, ":")
	name = strings.ToLower(name)
	for _, known := range DebugFlags {
		if name == known {
			return true
		}
	}
	return false
}

// SetDebugFlags sets the debug flags from a comma-separated string
// Supports both simple flags ("scan,hash") and key:value format ("scan:true,hash:false")
func SetDebugFlags(flagsStr string) {
	debugFlags = make(map[string]bool)
	if flagsStr == "" {
		return
	}

	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagName := strings.ToLower(parts[0])
		flagValue := true

		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "false", "0", "no", "off":
				flagValue = false
			default:
				flagValue = true
			}
		}

		debugFlags[flagName] = flagValue
	}
}

// IsDebugEnabled returns true if the specified debug flag is enabled
func IsDebugEnabled(flag string) bool {
	if debugFlags == nil {
		return false
	}
	return debugFlags[strings.ToLower(flag)]
}
