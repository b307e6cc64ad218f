package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pulsera/internal/models"

	"go.uber.org/zap"
)

// AlertArchiveRepository 报警归档仓库（alerts 表）
// 内存 AlertStore 是在线真身，这里只做落盘留痕：
// 创建时 INSERT，升级/处理时 UPDATE，从不 DELETE
type AlertArchiveRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertArchiveRepository 创建报警归档仓库
func NewAlertArchiveRepository(db *sql.DB, logger *zap.Logger) *AlertArchiveRepository {
	return &AlertArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// InsertAlert 写入新报警
func (r *AlertArchiveRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil || alert.ID == "" {
		return fmt.Errorf("alert id is required")
	}

	query := `
		INSERT INTO alerts (
			alert_id, device_id, zone_id, score, severity,
			is_active, acknowledged_by, created_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.DeviceID,
		alert.ZoneID,
		alert.Score,
		alert.Severity.String(),
		alert.IsActive,
		alert.AcknowledgedBy,
		alert.CreatedAt,
		alert.ResolvedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert alert into archive",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// UpdateEscalation 升级留痕（score/severity 就地更新）
func (r *AlertArchiveRepository) UpdateEscalation(ctx context.Context, alertID string, score float64, severity models.Severity) error {
	query := `
		UPDATE alerts
		SET score = $1, severity = $2, updated_at = NOW()
		WHERE alert_id = $3`

	result, err := r.db.ExecContext(ctx, query, score, severity.String(), alertID)
	if err != nil {
		r.logger.Error("Failed to update alert escalation",
			zap.String("alert_id", alertID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update alert escalation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert not found in archive: %s", alertID)
	}

	return nil
}

// UpdateResolved 处理留痕
func (r *AlertArchiveRepository) UpdateResolved(ctx context.Context, alertID, acknowledgedBy string, resolvedAt time.Time) error {
	query := `
		UPDATE alerts
		SET is_active = FALSE, acknowledged_by = $1, resolved_at = $2, updated_at = NOW()
		WHERE alert_id = $3`

	result, err := r.db.ExecContext(ctx, query, acknowledgedBy, resolvedAt, alertID)
	if err != nil {
		r.logger.Error("Failed to update alert resolution",
			zap.String("alert_id", alertID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update alert resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert not found in archive: %s", alertID)
	}

	return nil
}

// LoadAll 启动时回放归档（最新在前，与内存快照排序一致）
func (r *AlertArchiveRepository) LoadAll(ctx context.Context) ([]*models.Alert, error) {
	query := `
		SELECT alert_id, device_id, zone_id, score, severity,
		       is_active, acknowledged_by, created_at, resolved_at
		FROM alerts
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		var severity string
		var acknowledgedBy sql.NullString
		var resolvedAt sql.NullTime

		if err := rows.Scan(
			&a.ID, &a.DeviceID, &a.ZoneID, &a.Score, &severity,
			&a.IsActive, &acknowledgedBy, &a.CreatedAt, &resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.Severity, err = models.ParseSeverity(severity)
		if err != nil {
			r.logger.Warn("Unknown severity in archive, defaulting to normal",
				zap.String("alert_id", a.ID),
				zap.String("severity", severity),
			)
		}
		if acknowledgedBy.Valid {
			a.AcknowledgedBy = &acknowledgedBy.String
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			a.ResolvedAt = &t
		}

		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
