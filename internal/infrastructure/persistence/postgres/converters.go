package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/record"
)

// taskColumns is the column order shared by every SELECT and by taskArgs.
const taskColumns = `id, title, description, projects, due_at, start_at, end_at,
	priority, tags, reminder, notified, completed, comments, created_at, updated_at`

// === pgtype Conversion Helpers ===

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time (zero if invalid).
// Always returns time in UTC location for consistent timezone handling.
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// pgtypeToTimePtr converts pgtype.Timestamptz to *time.Time (nil if invalid).
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utcTime := t.Time.UTC()
	return &utcTime
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz, storing NULL for nil.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// === Task Conversions ===

// taskArgs returns the values for taskColumns, in order.
func taskArgs(task *domain.Task) []any {
	rec := record.FromDomain(task)
	return []any{
		rec.ID,
		rec.Title,
		rec.Description,
		rec.Projects,
		timeToPgtype(rec.Date),
		timePtrToPgtype(rec.Start),
		timePtrToPgtype(rec.End),
		int16(rec.Priority),
		rec.Tags,
		rec.Reminder,
		rec.Notified,
		rec.Completed,
		rec.Comments,
		timeToPgtype(rec.CreatedAt),
		timeToPgtype(rec.UpdatedAt),
	}
}

// scanTask reads one row selected with taskColumns.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		rec                           record.Task
		priority                      int16
		due, start, end, created, upd pgtype.Timestamptz
	)
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&rec.Projects,
		&due,
		&start,
		&end,
		&priority,
		&rec.Tags,
		&rec.Reminder,
		&rec.Notified,
		&rec.Completed,
		&rec.Comments,
		&created,
		&upd,
	)
	if err != nil {
		return nil, err
	}

	rec.Priority = int(priority)
	rec.Date = pgtypeToTime(due)
	rec.Start = pgtypeToTimePtr(start)
	rec.End = pgtypeToTimePtr(end)
	rec.CreatedAt = pgtypeToTime(created)
	rec.UpdatedAt = pgtypeToTime(upd)

	task, err := rec.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to convert task: %w", err)
	}
	return task, nil
}
