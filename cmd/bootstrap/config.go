package bootstrap

import (
	"tutorbook/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.JWTConfig { return cfg.JWT },
		func(cfg config.Config) config.GatewayConfig { return cfg.Gateway },
		func(cfg config.Config) config.AMQPConfig { return cfg.AMQP },
		func(cfg config.Config) config.MeetingConfig { return cfg.Meeting },
		func(cfg config.Config) config.WorkerConfig { return cfg.Worker },
	),
)
