package bootstrap

import (
	"context"

	"tutorbook/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewDispatcher,
		worker.NewMeetingLinkWorker,
	),
	fx.Invoke(StartWorkers),
)

func StartWorkers(lc fx.Lifecycle, dispatcher *worker.Dispatcher, links *worker.MeetingLinkWorker) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go dispatcher.Run(ctx)
			go links.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
