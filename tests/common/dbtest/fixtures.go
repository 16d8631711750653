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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DefaultServiceID is the reference service every e2e suite can rely on.
var DefaultServiceID = uuid.MustParse("6f1a2b3c-4d5e-4f60-8172-93a4b5c6d7e8")

func CreateTestService(t *testing.T, db DBLike, name string, avgDurationMinutes int) uuid.UUID {
	t.Helper()

	serviceID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO services (id, name, avg_duration_minutes, is_active) VALUES ($1, $2, $3, true)",
		serviceID, name, avgDurationMinutes)
	require.NoError(t, err)

	return serviceID
}

func CreateTestSlot(t *testing.T, db DBLike, serviceID uuid.UUID, capacity int) uuid.UUID {
	t.Helper()

	slotID := uuid.New()
	ctx := context.Background()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := db.Exec(ctx,
		`INSERT INTO slots (id, service_id, date, start_time, end_time, capacity, booked_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, 'AVAILABLE')`,
		slotID, serviceID, date, date.Add(9*time.Hour), date.Add(10*time.Hour), capacity)
	require.NoError(t, err)

	return slotID
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO services (id, name, avg_duration_minutes, is_active)
		VALUES ($1, 'General Consultation', 15, true)
		ON CONFLICT (id) DO NOTHING;
	`, DefaultServiceID)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
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

	return SeedReferenceData(pool)
}
