package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
	LevelFatal: color.New(color.FgRed, color.Bold),
}

var categoryColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan, color.Bold),
	LevelInfo:  color.New(color.FgGreen, color.Bold),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
	LevelFatal: color.New(color.FgRed, color.Bold),
}

// ParseLevel maps a LOG_LEVEL value onto a threshold. Unknown values fall
// back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

type fileEntry struct {
	Time     string `json:"time"`
	Level    string `json:"level"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Caller   string `json:"caller,omitempty"`
}

// Logger writes colored category-tagged lines to the terminal and the same
// entries as JSON to a daily file under logs/. Entries below the threshold
// are dropped.
type Logger struct {
	minLevel Level
	file     *os.File
}

func NewLogger() *Logger {
	l := &Logger{minLevel: ParseLevel(os.Getenv("LOG_LEVEL"))}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		l.Warn("LOGGER", fmt.Sprintf("Could not create logs directory, logging to stdout only: %v", err))
		return l
	}

	path := fmt.Sprintf("logs/ticketing-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.Warn("LOGGER", fmt.Sprintf("Could not open %s, logging to stdout only: %v", path, err))
		return l
	}

	l.file = f
	l.Info("LOGGER", "Writing structured logs to "+path)
	return l
}

func (l *Logger) log(level Level, category, message string) {
	if level < l.minLevel {
		return
	}

	now := time.Now().UTC()
	name := levelNames[level]
	category = strings.ToUpper(category)
	caller := callSite(3)

	line := fmt.Sprintf("%s %s %s %s",
		color.New(color.FgBlue).Sprint(now.Format("15:04:05")),
		levelColors[level].Sprintf("%-5s", name),
		categoryColors[level].Sprintf("[%-10s]", category),
		message)
	if caller != "" {
		line += color.New(color.FgMagenta).Sprint(" (" + caller + ")")
	}
	fmt.Println(line)

	if l.file != nil {
		raw, err := json.Marshal(fileEntry{
			Time:     now.Format(time.RFC3339Nano),
			Level:    name,
			Category: category,
			Message:  message,
			Caller:   caller,
		})
		if err == nil {
			l.file.Write(append(raw, '\n'))
		}
	}
}

// callSite reports the file:line that invoked the public logging method.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (l *Logger) Debug(category, message string) {
	l.log(LevelDebug, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(LevelInfo, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(LevelWarn, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(LevelError, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(LevelFatal, category, message)
	os.Exit(1)
}

// LogOrder tags order lifecycle entries with the order code they concern.
func (l *Logger) LogOrder(action, orderCode, message string) {
	l.log(LevelInfo, "ORDER", fmt.Sprintf("[%s] %s - %s", action, orderCode, message))
}

// LogPayment tags gateway traffic with the transaction reference.
func (l *Logger) LogPayment(action, reference, message string) {
	l.log(LevelInfo, "PAYMENT", fmt.Sprintf("[%s] %s - %s", action, reference, message))
}

// LogSecurity flags rejected signatures and similar events worth an alert.
func (l *Logger) LogSecurity(event, message string) {
	l.log(LevelWarn, "SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
