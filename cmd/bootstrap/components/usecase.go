package components

import (
	"tutorbook/internal/infra/gateway"
	"tutorbook/internal/infra/meeting"
	"tutorbook/internal/pkg/clock"
	"tutorbook/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		gateway.NewCardGateway,
		fx.As(new(commands.PaymentGateway)),
	),
	meeting.NewHTTPProvider,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewSessionMaterializer,
		commands.NewBookingUseCase,
		commands.NewPaymentUseCase,
	),
)
