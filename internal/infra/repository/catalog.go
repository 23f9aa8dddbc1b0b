package repository

import (
	"context"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferSnapshot is the write-side view of a bookable course or service: the
// facts booking creation needs and nothing else.
type OfferSnapshot struct {
	ID           uuid.UUID
	Kind         booking.ContextKind
	TeacherID    uuid.UUID
	Title        string
	PricePerHour decimal.Decimal
	Currency     string
}

type CatalogRepository struct{}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

func (r *CatalogRepository) FindOffer(ctx context.Context, dbtx db.DBTX, kind booking.ContextKind, id uuid.UUID) (*OfferSnapshot, error) {
	table := "courses"
	if kind == booking.ContextService {
		table = "services"
	}

	var (
		snap      OfferSnapshot
		priceText string
	)
	err := dbtx.QueryRow(ctx,
		`SELECT id, teacher_id, title, price_per_hour::text, currency FROM `+table+` WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.TeacherID, &snap.Title, &priceText, &snap.Currency)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("offer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find offer", err)
	}

	price, err := pgconv.DecimalFromText(priceText)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid offer price", err)
	}
	snap.Kind = kind
	snap.PricePerHour = price
	return &snap, nil
}
