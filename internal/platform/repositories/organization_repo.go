package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clarifier/internal/platform/database"
	"clarifier/internal/platform/models"
)

// PlanLimits holds the monthly clarification allowance per plan.
type PlanLimits struct {
	Free int
	Pro  int
}

func (l PlanLimits) For(plan models.Plan) int {
	if plan == models.PlanPro {
		return l.Pro
	}
	return l.Free
}

type OrganizationRepository struct {
	db     *sql.DB
	driver string
	limits PlanLimits
	now    func() time.Time
}

func NewOrganizationRepository(db *sql.DB, driver string, limits PlanLimits) *OrganizationRepository {
	return &OrganizationRepository{db: db, driver: driver, limits: limits, now: time.Now}
}

func (r *OrganizationRepository) q(query string) string {
	return database.Rebind(r.driver, query)
}

func (r *OrganizationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetOrCreate returns the organization, inserting a free-plan row on first
// reference. Concurrent creators race on the primary key and the loser's
// insert is a no-op. An expired reset date is rolled forward before returning.
func (r *OrganizationRepository) GetOrCreate(ctx context.Context, orgID string) (*models.Organization, error) {
	now := r.now()
	ts := now.Unix()

	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO organizations (org_id, plan, clarifications_used, clarifications_limit, reset_date, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?, ?)
		ON CONFLICT (org_id) DO NOTHING
	`), orgID, string(models.PlanFree), r.limits.Free, models.NextResetDate(now).Unix(), ts, ts)
	if err != nil {
		return nil, err
	}

	org, err := r.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, sql.ErrNoRows
	}

	if org.ResetDate <= ts {
		next := models.NextResetDate(now).Unix()
		res, err := r.db.ExecContext(ctx, r.q(`
			UPDATE organizations SET clarifications_used = 0, reset_date = ?, updated_at = ?
			WHERE org_id = ? AND reset_date <= ?
		`), next, ts, orgID, ts)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Another request reset the row first and may have counted since.
			return r.GetByID(ctx, orgID)
		}
		org.ClarificationsUsed = 0
		org.ResetDate = next
		org.UpdatedAt = ts
	}

	return org, nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	org := &models.Organization{}
	var customerID sql.NullString
	err := r.db.QueryRowContext(ctx, r.q(`
		SELECT org_id, plan, stripe_customer_id, clarifications_used, clarifications_limit, reset_date, created_at, updated_at
		FROM organizations WHERE org_id = ?
	`), orgID).Scan(&org.OrgID, &org.Plan, &customerID, &org.ClarificationsUsed, &org.ClarificationsLimit, &org.ResetDate, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if customerID.Valid {
		org.StripeCustomerID = &customerID.String
	}
	return org, nil
}

// Increment adds one to the organization's monthly usage. The update is a
// single statement so concurrent increments never lose a count.
func (r *OrganizationRepository) Increment(ctx context.Context, orgID string) error {
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE organizations SET clarifications_used = clarifications_used + 1, updated_at = ?
		WHERE org_id = ?
	`), r.now().Unix(), orgID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Row vanished or was never created; create it and retry once.
		if _, err := r.GetOrCreate(ctx, orgID); err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, r.q(`
			UPDATE organizations SET clarifications_used = clarifications_used + 1, updated_at = ?
			WHERE org_id = ?
		`), r.now().Unix(), orgID)
		return err
	}
	return nil
}

// Upgrade moves the organization to the pro plan.
func (r *OrganizationRepository) Upgrade(ctx context.Context, orgID, customerID string, limit int) error {
	if _, err := r.GetOrCreate(ctx, orgID); err != nil {
		return err
	}
	if limit <= 0 {
		limit = r.limits.Pro
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		UPDATE organizations SET plan = ?, stripe_customer_id = ?, clarifications_limit = ?, updated_at = ?
		WHERE org_id = ?
	`), string(models.PlanPro), customerID, limit, r.now().Unix(), orgID)
	return err
}

// Downgrade returns the organization to the free plan. Usage is kept.
func (r *OrganizationRepository) Downgrade(ctx context.Context, orgID string, limit int) error {
	if limit <= 0 {
		limit = r.limits.Free
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		UPDATE organizations SET plan = ?, clarifications_limit = ?, updated_at = ?
		WHERE org_id = ?
	`), string(models.PlanFree), limit, r.now().Unix(), orgID)
	return err
}

// ResetExpired zeroes usage for every organization whose reset date has passed.
func (r *OrganizationRepository) ResetExpired(ctx context.Context) (int64, error) {
	now := r.now()
	ts := now.Unix()
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE organizations SET clarifications_used = 0, reset_date = ?, updated_at = ?
		WHERE reset_date <= ?
	`), models.NextResetDate(now).Unix(), ts, ts)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
