package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times fn under op. Lookup misses count as "no_rows", unique
// violations as "conflict"; neither is a database error, since the user
// workflows turn both into client answers.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := dbStatus(err)
	if status == "error" {
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func dbStatus(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pgx.ErrNoRows):
		return "no_rows"
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return "conflict"
	default:
		return "error"
	}
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502", "23514":
			return "constraint"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case pgconn.SafeToRetry(err), pgconn.Timeout(err):
		return "connection"
	default:
		return "unknown"
	}
}
