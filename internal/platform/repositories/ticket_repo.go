package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"clarifier/internal/platform/database"
	"clarifier/internal/platform/models"
)

type TicketRepository struct {
	db     *sql.DB
	driver string
}

func NewTicketRepository(db *sql.DB, driver string) *TicketRepository {
	return &TicketRepository{db: db, driver: driver}
}

func (r *TicketRepository) Append(ctx context.Context, rec *models.TicketRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx, database.Rebind(r.driver, `
		INSERT INTO tickets (id, org_id, ticket_title, ticket_description, issue_type, priority, clarified_output, processing_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.OrgID, rec.Title, rec.Description, rec.IssueType, rec.Priority, rec.ClarifiedOutput, rec.ProcessingTime, rec.CreatedAt)
	return err
}

// Analytics summarizes the organization's tickets created at or after since.
func (r *TicketRepository) Analytics(ctx context.Context, orgID string, since time.Time) (*models.AnalyticsSummary, error) {
	summary := &models.AnalyticsSummary{TicketTypes: []models.TicketTypeCount{}}
	start := since.Unix()

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, database.Rebind(r.driver, `
		SELECT COUNT(*), AVG(processing_time), COUNT(DISTINCT created_at / 86400)
		FROM tickets WHERE org_id = ? AND created_at >= ?
	`), orgID, start).Scan(&summary.TotalTickets, &avg, &summary.ActiveDays)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		summary.AvgProcessingTime = avg.Float64
	}

	rows, err := r.db.QueryContext(ctx, database.Rebind(r.driver, `
		SELECT issue_type, COUNT(*) FROM tickets
		WHERE org_id = ? AND created_at >= ?
		GROUP BY issue_type
		ORDER BY COUNT(*) DESC, issue_type
	`), orgID, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.TicketTypeCount
		if err := rows.Scan(&c.IssueType, &c.Count); err != nil {
			return nil, err
		}
		summary.TicketTypes = append(summary.TicketTypes, c)
	}
	return summary, rows.Err()
}
