package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gittogether/api/internal/models"
)

const requestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// Create inserts the edge unless one already exists for the unordered pair,
// in which case ErrDuplicatePair is returned.
func (r *RequestRepository) Create(ctx context.Context, req models.ConnectionRequest) (models.ConnectionRequest, error) {
	const query = `
		INSERT INTO connection_requests (
			id, from_user_id, to_user_id, status, pair_low, pair_high, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, LEAST($2, $3), GREATEST($2, $3), NOW(), NOW()
		)
		ON CONFLICT (pair_low, pair_high) DO NOTHING
		RETURNING ` + requestColumns

	created, err := scanRequest(r.pool.QueryRow(ctx, query, req.ID, req.FromUserID, req.ToUserID, req.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err, "connection_requests_pair_key") {
			return models.ConnectionRequest{}, ErrDuplicatePair
		}
		return models.ConnectionRequest{}, fmt.Errorf("insert connection request: %w", err)
	}
	return created, nil
}

// FindBetween returns the edge for the unordered pair (a, b).
func (r *RequestRepository) FindBetween(ctx context.Context, a, b string) (models.ConnectionRequest, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM connection_requests
		WHERE pair_low = $1 AND pair_high = $2
	`
	low, high := models.OrderedPair(a, b)
	req, err := scanRequest(r.pool.QueryRow(ctx, query, low, high))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ConnectionRequest{}, ErrRequestNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("find connection request: %w", err)
	}
	return req, nil
}

// Review moves a pending edge addressed to reviewerID to status. The update is
// conditional, so of two concurrent reviews only one can succeed; the loser
// gets ErrRequestNotFound.
func (r *RequestRepository) Review(ctx context.Context, requestID, reviewerID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	const query = `
		UPDATE connection_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND to_user_id = $2 AND status = 'interested'
		RETURNING ` + requestColumns

	req, err := scanRequest(r.pool.QueryRow(ctx, query, requestID, reviewerID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ConnectionRequest{}, ErrRequestNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("review connection request: %w", err)
	}
	return req, nil
}

// AreConnected reports whether an accepted edge exists between a and b.
func (r *RequestRepository) AreConnected(ctx context.Context, a, b string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM connection_requests
			WHERE pair_low = $1 AND pair_high = $2 AND status = 'accepted'
		)
	`
	low, high := models.OrderedPair(a, b)
	var ok bool
	if err := r.pool.QueryRow(ctx, query, low, high).Scan(&ok); err != nil {
		return false, fmt.Errorf("check connection: %w", err)
	}
	return ok, nil
}

// ListConnections resolves every accepted edge touching userID to the other party.
func (r *RequestRepository) ListConnections(ctx context.Context, userID string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM connection_requests cr
		JOIN users u ON u.id = CASE WHEN cr.from_user_id = $1 THEN cr.to_user_id ELSE cr.from_user_id END
		WHERE cr.status = 'accepted' AND (cr.from_user_id = $1 OR cr.to_user_id = $1)
		ORDER BY cr.updated_at, cr.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return collectUsers(rows)
}

// ListPendingReceived returns interested edges addressed to userID, with the sender.
func (r *RequestRepository) ListPendingReceived(ctx context.Context, userID string) ([]models.PendingRequest, error) {
	query := `
		SELECT ` + userColumns + `, cr.id, cr.created_at
		FROM connection_requests cr
		JOIN users u ON u.id = cr.from_user_id
		WHERE cr.to_user_id = $1 AND cr.status = 'interested'
		ORDER BY cr.created_at, cr.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingRequest
	for rows.Next() {
		var p models.PendingRequest
		from, err := scanUser(rows, &p.RequestID, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		p.From = from
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// CounterpartIDs returns the other party of every edge touching userID,
// regardless of status.
func (r *RequestRepository) CounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT CASE WHEN from_user_id = $1 THEN to_user_id ELSE from_user_id END
		FROM connection_requests
		WHERE from_user_id = $1 OR to_user_id = $1
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list counterparts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPendingRecipients returns the distinct recipients of interested edges
// created in [from, to).
func (r *RequestRepository) ListPendingRecipients(ctx context.Context, from, to time.Time) ([]models.Recipient, error) {
	const query = `
		SELECT DISTINCT u.id, u.email, u.first_name
		FROM connection_requests cr
		JOIN users u ON u.id = cr.to_user_id
		WHERE cr.status = 'interested' AND cr.created_at >= $1 AND cr.created_at < $2
		ORDER BY u.id
	`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list pending recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var rec models.Recipient
		if err := rows.Scan(&rec.UserID, &rec.Email, &rec.FirstName); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func scanRequest(row pgx.Row) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	return req, err
}
