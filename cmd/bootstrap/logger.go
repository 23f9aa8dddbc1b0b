package bootstrap

import (
	"log/slog"

	"tutorbook/internal/handler/middleware"
	"tutorbook/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		func(cfg config.Config) *slog.Logger {
			return middleware.NewLogger(cfg.Log)
		},
	),
)
