package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded by the engine's administrative surface.
const (
	ActionPolicyUpdate    = "policy.update"
	ActionHoldAdd         = "legal_hold.add"
	ActionHoldRemove      = "legal_hold.remove"
	ActionCleanupRun      = "retention.cleanup"
	ActionAuditRun        = "minimization.audit"
	ActionDeletionRequest = "deletion.request"
	ActionDeletionExecute = "deletion.execute"
	ActionDeletionCancel  = "deletion.cancel"
)

type Event struct {
	ID         string          `json:"id"`
	ActorEmail string          `json:"actorEmail"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorEmail, action, entityType, entityID, requestID string, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_email, action, entity_type, entity_id, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, actorEmail, action, entityType, entityID, beforeJSON, afterJSON, requestID)
	return err
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query := "SELECT id::text, actor_email, action, entity_type, COALESCE(entity_id, ''), COALESCE(request_id, ''), created_at FROM audit_events WHERE 1=1"
	args := []any{}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorEmail, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}
