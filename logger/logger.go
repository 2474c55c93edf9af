package logger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const (
	EventServiceStartup    = "SERVICE_STARTUP"
	EventServiceShutdown   = "SERVICE_SHUTDOWN"
	EventDBConnection      = "DB_CONNECTION"
	EventDBError           = "DB_ERROR"
	EventHTTPRequest       = "HTTP_REQUEST"
	EventValidationFailure = "VALIDATION_FAILURE"
	EventRateLimited       = "RATE_LIMITED"
	EventGeneral           = "GENERAL"
)

type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     Level                  `json:"level"`
	Service   string                 `json:"service"`
	EventType string                 `json:"event_type"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Hmac      string                 `json:"hmac"`
}

type Config struct {
	ServiceName string
	Environment string
	LogFilePath string
	HMACKey     string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

type Logger struct {
	cfg     Config
	out     io.Writer
	closer  io.Closer
	hmacKey []byte
	mu      sync.Mutex
}

var redactedKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"mongo_uri":     true,
	"api_key":       true,
}

var (
	instance   *Logger
	instanceMu sync.Mutex
)

// Init replaces the process-wide logger.
func Init(cfg Config) {
	l := New(cfg)
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		instance.Close()
	}
	instance = l
}

func Get() *Logger {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = NewWithWriter(Config{ServiceName: "album-service", Environment: "development"}, os.Stdout)
	}
	return instance
}

// New builds a logger writing to stdout and, when the log directory can be
// created, to a rotating file.
func New(cfg Config) *Logger {
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}
	if cfg.LogFilePath == "" {
		cfg.LogFilePath = filepath.Join("/var/log", cfg.ServiceName, "app.log")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: log directory unavailable (%v), logging to stdout only\n", err)
		return NewWithWriter(cfg, os.Stdout)
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	l := NewWithWriter(cfg, io.MultiWriter(os.Stdout, rotating))
	l.closer = rotating
	return l
}

func NewWithWriter(cfg Config, w io.Writer) *Logger {
	if cfg.HMACKey == "" {
		cfg.HMACKey = "default-hmac-key-change-in-production"
	}
	return &Logger{cfg: cfg, out: w, hmacKey: []byte(cfg.HMACKey)}
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) write(level Level, event, msg string, details map[string]interface{}) {
	e := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.cfg.ServiceName,
		EventType: event,
		Message:   l.clean(msg),
		Details:   l.cleanDetails(details),
	}
	e.Hmac = l.Sign(e)

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: marshal log entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))
}

func (l *Logger) Info(event, msg string, details map[string]interface{}) {
	l.write(LevelInfo, event, msg, details)
}

func (l *Logger) Warn(event, msg string, details map[string]interface{}) {
	l.write(LevelWarn, event, msg, details)
}

func (l *Logger) Error(event, msg string, details map[string]interface{}) {
	l.write(LevelError, event, msg, details)
}

func (l *Logger) Fatal(event, msg string, details map[string]interface{}) {
	l.write(LevelError, event, msg, details)
	l.Close()
	os.Exit(1)
}

func Info(event, msg string, details map[string]interface{})  { Get().Info(event, msg, details) }
func Warn(event, msg string, details map[string]interface{})  { Get().Warn(event, msg, details) }
func Error(event, msg string, details map[string]interface{}) { Get().Error(event, msg, details) }
func Fatal(event, msg string, details map[string]interface{}) { Get().Fatal(event, msg, details) }

// Fields turns alternating keys and values into a details map. Non-string
// keys and a trailing key without a value are dropped.
func Fields(kv ...interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			details[key] = kv[i+1]
		}
	}
	return details
}

// Sign returns the integrity tag over the entry header.
func (l *Logger) Sign(e Entry) string {
	mac := hmac.New(sha256.New, l.hmacKey)
	fmt.Fprintf(mac, "%s|%s|%s|%s|%s", e.Timestamp, e.Level, e.Service, e.EventType, e.Message)
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *Logger) cleanDetails(details map[string]interface{}) map[string]interface{} {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		if redactedKeys[strings.ToLower(k)] {
			out[k] = "[REDACTED]"
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = l.clean(val)
		case map[string]interface{}:
			out[k] = l.cleanDetails(val)
		default:
			out[k] = val
		}
	}
	return out
}

// clean drops goroutine dumps from multi-line strings in production.
func (l *Logger) clean(s string) string {
	if l.cfg.Environment != "production" || !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "goroutine ") || strings.HasPrefix(line, "\t") || strings.Contains(line, "panic(") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
