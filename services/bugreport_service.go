package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestBot/internal/types/bugreport"
)

var ErrInvalidTransition = errors.New("status transition not allowed")

type BugReportService struct {
	db *pgxpool.Pool
}

func NewBugReportService(db *pgxpool.Pool) *BugReportService {
	return &BugReportService{db: db}
}

const bugReportColumns = `id, user_id, text, severity, status, created_at, updated_at`

func scanBugReport(row pgx.Row) (*bugreport.BugReport, error) {
	r := &bugreport.BugReport{}
	err := row.Scan(&r.ID, &r.UserID, &r.Text, &r.Severity, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *BugReportService) Create(ctx context.Context, userID uuid.UUID, text string, severity bugreport.Severity) (*bugreport.BugReport, error) {
	if text == "" {
		return nil, fmt.Errorf("bug report text must not be empty")
	}
	if severity == "" {
		severity = bugreport.SeverityMedium
	}

	query := `
	INSERT INTO bug_reports (id, user_id, text, severity, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
	RETURNING ` + bugReportColumns

	r, err := scanBugReport(s.db.QueryRow(ctx, query, uuid.New(), userID, text, severity, bugreport.StatusNew, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create bug report: %w", err)
	}
	return r, nil
}

// Get returns nil (no error) when the report does not exist.
func (s *BugReportService) Get(ctx context.Context, id uuid.UUID) (*bugreport.BugReport, error) {
	query := `SELECT ` + bugReportColumns + ` FROM bug_reports WHERE id = $1`
	r, err := scanBugReport(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bug report %s: %w", id, err)
	}
	return r, nil
}

// List returns one page of reports, newest first, optionally narrowed by
// status and a case-insensitive substring of the report text.
func (s *BugReportService) List(ctx context.Context, filter bugreport.ListFilter) (*bugreport.Page, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	where := "WHERE 1=1"
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND text ILIKE $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM bug_reports `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bug reports: %w", err)
	}

	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`SELECT %s FROM bug_reports %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bugReportColumns, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bug reports: %w", err)
	}
	defer rows.Close()

	items := []bugreport.BugReport{}
	for rows.Next() {
		r, err := scanBugReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bug report: %w", err)
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + size - 1) / size
	return &bugreport.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}, nil
}

// UpdateStatus moves a report through the triage state machine. Illegal
// moves return ErrInvalidTransition so the handler can map them to 409.
func (s *BugReportService) UpdateStatus(ctx context.Context, id uuid.UUID, to bugreport.Status) (*bugreport.BugReport, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if !bugreport.AllowedTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	query := `UPDATE bug_reports SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + bugReportColumns
	r, err := scanBugReport(s.db.QueryRow(ctx, query, to, time.Now(), id))
	if err != nil {
		return nil, fmt.Errorf("failed to update bug report %s: %w", id, err)
	}
	return r, nil
}
