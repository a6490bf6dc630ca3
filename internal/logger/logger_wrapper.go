package logger

import (
	"os"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger creates a production (JSON, stderr) logger.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger, level: level}
}

// NewDevelopmentLogger creates a human readable console logger.
func NewDevelopmentLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	logger, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger, level: level}
}

// NewNopLogger discards everything.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// New wraps an existing zap core, e.g. an observer core in tests.
func New(core zapcore.Core) contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return &ZapLogger{logger: zap.New(core), level: level}
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	_ = z.logger.Sync()
	os.Exit(1)
}

// Field returns a field factory.
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// SetLevel sets the minimum enabled level.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination redirects output to the console or to a file. Errors opening
// the file leave the current destination untouched.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	var ws zapcore.WriteSyncer
	switch dest {
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("file destination requested without a path")
			return
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			z.Error("cannot open log file", z.Field().String("path", filePath[0]), z.Field().Error("error", err))
			return
		}
		ws = zapcore.AddSync(f)
	default:
		ws = zapcore.Lock(os.Stderr)
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	z.logger = zap.New(zapcore.NewCore(encoder, ws, z.level), zap.AddCaller(), zap.AddCallerSkip(2))
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	if ce := z.logger.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.field.Key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
}

func (zapField) Bool(key string, val bool) contracts.Field {
	return zapField{zap.Bool(key, val)}
}

func (zapField) Int(key string, val int) contracts.Field {
	return zapField{zap.Int(key, val)}
}

func (zapField) Float64(key string, val float64) contracts.Field {
	return zapField{zap.Float64(key, val)}
}

func (zapField) String(key string, val string) contracts.Field {
	return zapField{zap.String(key, val)}
}

func (zapField) Time(key string, val time.Time) contracts.Field {
	return zapField{zap.Time(key, val)}
}

func (zapField) Duration(key string, val time.Duration) contracts.Field {
	return zapField{zap.Duration(key, val)}
}

func (zapField) Int64(key string, val int64) contracts.Field {
	return zapField{zap.Int64(key, val)}
}

func (zapField) Error(key string, val error) contracts.Field {
	return zapField{zap.NamedError(key, val)}
}

func (zapField) Uint64(key string, val uint64) contracts.Field {
	return zapField{zap.Uint64(key, val)}
}

func (zapField) Uint8(key string, val uint8) contracts.Field {
	return zapField{zap.Uint8(key, val)}
}
