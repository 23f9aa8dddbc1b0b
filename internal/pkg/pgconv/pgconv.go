package pgconv

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Conversion helpers between Postgres wire values and domain types. Numeric
// columns travel as text to keep decimal values exact.

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func DecimalFromText(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func DecimalPtrFromText(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func TextFromDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func TextPtrFromDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
