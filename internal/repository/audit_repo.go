package repository

import (
	"context"
	"database/sql"
	"encoding/json"
)

// AuditRepository appends state-transition records to the audit log. Callers
// treat it as fire-and-forget; a failed insert never rolls back the booking
// mutation it describes.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository returns repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends one audit entry.
func (r *AuditRepository) Record(ctx context.Context, entityType, entityID, action string, actorID int64, actorRole string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO audit_log (entity_type, entity_id, action, actor_id, actor_role, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err = r.db.ExecContext(ctx, query, entityType, entityID, action, actorID, actorRole, data)
	return err
}
