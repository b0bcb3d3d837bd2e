package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/crm-import/internal/domain"
	"github.com/lib/pq"
)

// ContactRepo implements the importer's existing-contacts source and
// contact sink against PostgreSQL.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// List returns all contacts ordered by creation time.
func (r *ContactRepo) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(company,''),
		       status, tags, COALESCE(notes,''), created_at, updated_at
		FROM crm_contacts
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		var tags pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company,
			&c.Status, &tags, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Tags = []string(tags)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

// Create inserts one contact. Implements importer.Sink.
func (r *ContactRepo) Create(ctx context.Context, in domain.ContactInput) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_contacts (id, name, email, phone, company, status, tags, notes, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, $7, NULLIF($8,''), NOW(), NOW())
	`, uuid.New(), in.Name, in.Email, in.Phone, in.Company, in.Status, pq.Array(in.Tags), in.Notes)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}
