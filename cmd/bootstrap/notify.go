package bootstrap

import (
	"context"

	"tutorbook/internal/infra/notify"
	"tutorbook/internal/pkg/config"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewEventPublisher,
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.AMQPConfig) (notify.EventPublisher, error) {
	publisher, err := notify.NewAMQPPublisher(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}
