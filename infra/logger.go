package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/OrcaBus/service-filemanager/config"
)

// LoggerClient wraps slog behind the OTel log bridge so every log record
// also ships to the configured OTLP collector. Call sites use the
// InfoWithContextf/WarningWithContextf/ErrorWithContextf shape throughout
// the pipeline and consumer workers, in place of raw log.Printf.
type LoggerClient struct {
	logger *slog.Logger
}

func InitLoggerClient(cfg *config.EnvConfig) *LoggerClient {
	exporter, err := otlploghttp.New(context.Background())
	var provider *sdklog.LoggerProvider
	if err != nil {
		// Fall back to a stdout-only slog logger; the engine must not
		// refuse to start because a collector is unreachable.
		fmt.Fprintf(os.Stderr, "warning: failed to init OTLP log exporter: %v\n", err)
		return &LoggerClient{logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))}
	}

	provider = sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)))
	logger := otelslog.NewLogger("filemanager", otelslog.WithLoggerProvider(provider))

	return &LoggerClient{logger: logger}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...any) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...any) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		l.logger.ErrorContext(ctx, msg, slog.Any("error", err))
		return
	}
	l.logger.ErrorContext(ctx, msg)
}
