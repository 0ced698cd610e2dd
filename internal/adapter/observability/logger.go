package observability

import (
	"log/slog"
	"os"

	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
)

// SetupLogger builds the process-wide JSON logger. Debug level in dev,
// info otherwise; every record carries the service and env fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
