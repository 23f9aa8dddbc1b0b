package components

import (
	"tutorbook/internal/infra/db"
	"tutorbook/internal/infra/readstore"
	repo_impl "tutorbook/internal/infra/repository"
	"tutorbook/internal/usecase/commands"
	"tutorbook/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			repo_impl.NewSlotRepository,
			fx.As(new(commands.SlotRepository)),
		),
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewPaymentRepository,
			fx.As(new(commands.PaymentRepository)),
		),
		fx.Annotate(
			repo_impl.NewCatalogRepository,
			fx.As(new(commands.CatalogRepository)),
		),
		fx.Annotate(
			repo_impl.NewIdempotencyRepository,
			fx.As(new(commands.IdempotencyRepository)),
		),
		// Workers take the concrete types; the command layer sees interfaces.
		repo_impl.NewSessionRepository,
		func(r *repo_impl.SessionRepository) commands.SessionRepository { return r },
		repo_impl.NewNotificationRepository,
		func(r *repo_impl.NotificationRepository) commands.NotificationOutbox { return r },
		// Read side
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
		queries.NewBookingQueries,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
