package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogDirName  = "logs"
	defaultLogFilename = "freightlane.log"
	serviceName        = "freightlane"
)

// Options 日志输出配置，数值项为 0 时取 rotationDefaults
type Options struct {
	Level      string
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var rotationDefaults = Options{MaxSizeMB: 100, MaxBackups: 7, MaxAgeDays: 30}

// L 全局结构化日志实例，Init 之前为 nil
var L *zap.Logger

var bootstrap = newConsole(zap.NewAtomicLevelAt(zap.InfoLevel))

// Init 初始化全局日志并替换 zap 全局实例
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New 按运行模式创建日志
// debug 输出彩色控制台；其他模式写入按大小轮转的 JSON 文件，warn 及以上同时输出到 stderr
func New(mode string, options Options) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level := resolveLevel(options.Level, debug)
	if debug {
		return newConsole(level)
	}

	file, err := rotatingFile(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: file sink unavailable, using stdout: %v\n", err)
		file = zapcore.Lock(os.Stdout)
	}
	encoder := zapcore.NewJSONEncoder(encoderConfig())
	stderrLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.WarnLevel && level.Enabled(l)
	})
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, file, level),
		zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stderr), stderrLevel),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("service", serviceName))
}

func newConsole(level zap.AtomicLevel) *zap.Logger {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func current() *zap.Logger {
	if L == nil {
		return bootstrap
	}
	return L
}

// StdLogger 供 net/http 等标准库组件写入结构化日志
func StdLogger() *log.Logger {
	return zap.NewStdLog(current())
}

// S 全局 SugaredLogger
func S() *zap.SugaredLogger {
	return current().Sugar()
}

// SW 附带键值字段的 SugaredLogger
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

func Debugw(message string, kv ...interface{}) { S().Debugw(message, kv...) }

func Infow(message string, kv ...interface{}) { S().Infow(message, kv...) }

func Warnw(message string, kv ...interface{}) { S().Warnw(message, kv...) }

func Errorw(message string, kv ...interface{}) { S().Errorw(message, kv...) }

func resolveLevel(raw string, debug bool) zap.AtomicLevel {
	fallback := zapcore.InfoLevel
	if debug {
		fallback = zapcore.DebugLevel
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return zap.NewAtomicLevelAt(fallback)
	}
	level, err := zapcore.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return zap.NewAtomicLevelAt(level)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "event"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func rotatingFile(options Options) (zapcore.WriteSyncer, error) {
	path, err := resolveLogFilePath(options)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(options.MaxSizeMB, rotationDefaults.MaxSizeMB),
		MaxBackups: orDefault(options.MaxBackups, rotationDefaults.MaxBackups),
		MaxAge:     orDefault(options.MaxAgeDays, rotationDefaults.MaxAgeDays),
		Compress:   options.Compress,
	}), nil
}

// resolveLogFilePath 目录为空时使用工作目录下的 logs，并确认文件可写
func resolveLogFilePath(options Options) (string, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("logger: workdir: %w", err)
		}
		dir = filepath.Join(wd, defaultLogDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("logger: mkdir %s: %w", dir, err)
	}
	name := strings.TrimSpace(options.Filename)
	if name == "" {
		name = defaultLogFilename
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("logger: open %s: %w", path, err)
	}
	return path, f.Close()
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
