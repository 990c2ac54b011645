package logging

// Leveled logging for the cipwire CLI and client.

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

// ParseLevel maps a config or flag value to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "quiet":
		return LogLevelSilent, nil
	case "error":
		return LogLevelError, nil
	case "", "info":
		return LogLevelInfo, nil
	case "verbose":
		return LogLevelVerbose, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q (want silent, error, info, verbose or debug)", s)
	}
}

func (l LogLevel) String() string {
	return levelLabel(l)
}

func levelLabel(level LogLevel) string {
	switch level {
	case LogLevelSilent:
		return "silent"
	case LogLevelError:
		return "error"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// Logger provides leveled logging to the console and an optional file.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	format   string
	logEvery int
	counter  int
	file     *os.File
	fileLog  *log.Logger
	stdout   *log.Logger
	stderr   *log.Logger
}

// NewLogger creates a text logger that writes every message.
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	return NewLoggerWithOptions(level, logFile, "text", 1)
}

// NewLoggerWithOptions creates a logger. format is "text" or "json"; when
// logEvery > 1 only every Nth non-error message reaches the console.
func NewLoggerWithOptions(level LogLevel, logFile, format string, logEvery int) (*Logger, error) {
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	if logEvery < 1 {
		logEvery = 1
	}
	l := &Logger{
		level:    level,
		format:   format,
		logEvery: logEvery,
		stdout:   log.New(os.Stdout, "", 0),
		stderr:   log.New(os.Stderr, "", 0),
	}

	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		flags := log.LstdFlags
		if format == "json" {
			flags = 0
		}
		l.fileLog = log.New(file, "", flags)
	}

	return l, nil
}

// SetOutput redirects console output. Errors go to errOut.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = log.New(out, "", 0)
	l.stderr = log.New(errOut, "", 0)
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(LogLevelError, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(LogLevelInfo, format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.log(LogLevelVerbose, format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(LogLevelDebug, format, v...)
}

func (l *Logger) log(level LogLevel, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < level {
		return
	}
	msg := fmt.Sprintf(format, v...)
	var line string
	if l.format == "json" {
		entry, _ := json.Marshal(struct {
			Time    string `json:"time"`
			Level   string `json:"level"`
			Message string `json:"message"`
		}{time.Now().UTC().Format(time.RFC3339Nano), levelLabel(level), msg})
		line = string(entry)
	} else {
		line = strings.ToUpper(levelLabel(level)) + ": " + msg
	}

	// The file gets every message; the console is sampled.
	if l.fileLog != nil {
		l.fileLog.Println(line)
	}
	if level == LogLevelError {
		l.stderr.Println(line)
		return
	}
	l.counter++
	if l.counter%l.logEvery != 0 {
		return
	}
	// Info and below reach the console only when verbose.
	if l.level >= LogLevelVerbose {
		l.stdout.Println(line)
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogOutcome logs the verdict for one physical response of a service call.
// Failures log at info, everything else at verbose.
func (l *Logger) LogOutcome(service string, fragment int, verdict string, status uint8, err error) {
	var errStr string
	if err != nil {
		errStr = fmt.Sprintf(" - error: %v", err)
	}
	msg := fmt.Sprintf("%s %s (fragment %d, status: 0x%02X)%s", strings.ToUpper(verdict), service, fragment, status, errStr)
	if verdict == "failed" || err != nil {
		l.Info("%s", msg)
		return
	}
	l.Verbose("%s", msg)
}

// LogCommand logs the start of a CLI command.
func (l *Logger) LogCommand(command, configPath string) {
	l.Verbose("Starting cipwire %s", command)
	if configPath != "" {
		l.Verbose("  Config: %s", configPath)
	}
}

// LogHex logs hex data (for debug level)
func (l *Logger) LogHex(label string, data []byte) {
	if l == nil || l.GetLevel() < LogLevelDebug {
		return
	}
	hexStr := make([]string, len(data))
	for i, b := range data {
		hexStr[i] = fmt.Sprintf("%02x", b)
	}
	l.Debug("%s: %s", label, strings.Join(hexStr, " "))
}
