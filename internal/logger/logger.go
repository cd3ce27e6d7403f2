package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled printf-style logger shared by every package. Process-wide state is
// deliberate: the level and destination are set once at bootstrap and read
// everywhere.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu           sync.Mutex
	currentLevel = LevelInfo
	out          io.Writer = os.Stdout
)

// SetLevel sets the minimum level that gets written. Unknown names keep the
// current level.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output. The default is stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func logf(level Level, format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()

	if level < currentLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(out, "[%s] [%s] %s\n", timestamp, level, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) { logf(LevelDebug, format, v...) }
func Info(format string, v ...any)  { logf(LevelInfo, format, v...) }
func Warn(format string, v ...any)  { logf(LevelWarn, format, v...) }
func Error(format string, v ...any) { logf(LevelError, format, v...) }

// Fatal logs at ERROR and exits the process. Bootstrap-only.
func Fatal(format string, v ...any) {
	logf(LevelError, format, v...)
	os.Exit(1)
}
