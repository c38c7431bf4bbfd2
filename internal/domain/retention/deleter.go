package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"lifecycle/internal/domain/policy"
	"lifecycle/internal/domain/scan"
)

// PGDeleter removes records through their type-specific paths. Export
// artifacts also have a file on disk; a missing file is not an error.
type PGDeleter struct {
	DB *pgxpool.Pool
}

func NewPGDeleter(db *pgxpool.Pool) *PGDeleter {
	return &PGDeleter{DB: db}
}

func (d *PGDeleter) DeleteRecord(ctx context.Context, item scan.Item) error {
	switch item.DataType {
	case policy.DataTypePageViewData:
		_, err := d.DB.Exec(ctx, `DELETE FROM page_views WHERE id = $1::bigint`, item.ID)
		return err
	case policy.DataTypeExportRequests:
		var filePath string
		if err := d.DB.QueryRow(ctx, `
      SELECT COALESCE(file_path, '') FROM export_requests WHERE id = $1
    `, item.ID).Scan(&filePath); err != nil {
			return err
		}
		if _, err := d.DB.Exec(ctx, `DELETE FROM export_requests WHERE id = $1`, item.ID); err != nil {
			return err
		}
		if filePath != "" {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				slog.Warn("export artifact removal failed", "path", filePath, "err", err)
			}
		}
		return nil
	case policy.DataTypeSystemLogs:
		_, err := d.DB.Exec(ctx, `DELETE FROM system_logs WHERE id = $1::bigint`, item.ID)
		return err
	case policy.DataTypeNotificationRecords:
		_, err := d.DB.Exec(ctx, `DELETE FROM notifications WHERE id = $1::bigint`, item.ID)
		return err
	default:
		// Inactive profiles and every autoDelete=false type are only ever
		// reported on; account removal goes through the deletion
		// orchestrator instead.
		return fmt.Errorf("no deletion path for data type %s", item.DataType)
	}
}
