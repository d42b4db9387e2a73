package server

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry represents a structured log entry
type LogEntry struct {
	Level     LogLevel               `json:"level"`
	Timestamp time.Time              `json:"timestamp"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// LogBuffer stores recent log entries in memory
type LogBuffer struct {
	entries []LogEntry
	mutex   sync.RWMutex
	maxSize int
}

var globalLogBuffer = &LogBuffer{
	entries: make([]LogEntry, 0, 200),
	maxSize: 200,
}

var debugFile *os.File

// AddEntry adds a log entry to the buffer
func (lb *LogBuffer) AddEntry(entry LogEntry) {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()

	lb.entries = append(lb.entries, entry)
	if len(lb.entries) > lb.maxSize {
		lb.entries = lb.entries[len(lb.entries)-lb.maxSize:]
	}
}

// GetRecentEntries returns the most recent N log entries (newest first)
func (lb *LogBuffer) GetRecentEntries(count int) []LogEntry {
	lb.mutex.RLock()
	defer lb.mutex.RUnlock()

	if count > len(lb.entries) {
		count = len(lb.entries)
	}
	startIdx := len(lb.entries) - count
	entriesCopy := make([]LogEntry, count)
	for i, j := 0, len(lb.entries)-1; j >= startIdx; i, j = i+1, j-1 {
		entriesCopy[i] = lb.entries[j]
	}
	return entriesCopy
}

// Logger provides structured logging functionality
type Logger struct {
	component string
}

// NewLogger creates a new logger instance for a specific component
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, data ...map[string]interface{}) {
	l.log(LogLevelDebug, message, nil, data...)
}

// Info logs an info message
func (l *Logger) Info(message string, data ...map[string]interface{}) {
	l.log(LogLevelInfo, message, nil, data...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, data ...map[string]interface{}) {
	l.log(LogLevelWarn, message, nil, data...)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, data ...map[string]interface{}) {
	var errorStr string
	if err != nil {
		errorStr = err.Error()
	}
	l.log(LogLevelError, message, &errorStr, data...)
}

func (l *Logger) log(level LogLevel, message string, errStr *string, data ...map[string]interface{}) {
	entry := LogEntry{
		Level:     level,
		Timestamp: time.Now(),
		Component: l.component,
		Message:   message,
	}
	if errStr != nil {
		entry.Error = *errStr
	}
	if len(data) > 0 {
		entry.Data = make(map[string]interface{})
		for _, d := range data {
			for k, v := range d {
				entry.Data[k] = v
			}
		}
	}

	globalLogBuffer.AddEntry(entry)

	jsonData, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[%s] %s: %s", level, l.component, message)
		return
	}
	if debugFile != nil {
		fmt.Fprintf(debugFile, "%s\n", string(jsonData))
	} else {
		log.Printf("%s", string(jsonData))
	}
}

// Component loggers
var (
	ServerLogger = NewLogger("Server")
	HubLogger    = NewLogger("Hub")
	WalletLogger = NewLogger("Wallet")
	DBLogger     = NewLogger("Database")
)

// LogToFile enables logging to a file with rotation
func LogToFile(filename string) error {
	if stat, err := os.Stat(filename); err == nil {
		if stat.Size() > 10*1024*1024 {
			rotatedName := filename + ".old"
			_ = os.Remove(rotatedName)
			_ = os.Rename(filename, rotatedName)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}

	debugFile = file
	log.SetOutput(file)
	return nil
}

// GetLogBuffer returns the global log buffer
func GetLogBuffer() *LogBuffer {
	return globalLogBuffer
}
