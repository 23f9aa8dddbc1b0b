//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tutorbook/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestCourse(t *testing.T, db DBLike, teacherID uuid.UUID, pricePerHour, currency string) uuid.UUID {
	t.Helper()

	courseID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO courses (id, teacher_id, title, price_per_hour, currency) VALUES ($1, $2, $3, $4, $5)",
		courseID, teacherID, "Test Course", pricePerHour, currency)
	require.NoError(t, err)

	return courseID
}

func CreateTestService(t *testing.T, db DBLike, teacherID uuid.UUID, pricePerHour, currency string) uuid.UUID {
	t.Helper()

	serviceID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO services (id, teacher_id, title, price_per_hour, currency) VALUES ($1, $2, $3, $4, $5)",
		serviceID, teacherID, "Test Service", pricePerHour, currency)
	require.NoError(t, err)

	return serviceID
}

func CreateTestSlot(t *testing.T, pool *pgxpool.Pool, teacherID uuid.UUID, dayNumber, startMinute, durationMin int) uuid.UUID {
	t.Helper()

	slotID, err := repository.NewSlotRepository().Create(
		context.Background(), pool, teacherID, time.Weekday(dayNumber), startMinute, durationMin)
	require.NoError(t, err)

	return slotID
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables between subtests
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var tbl string
			if err := rows.Scan(&tbl); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, tbl)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}
