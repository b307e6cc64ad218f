package service

import (
	"context"
	"fmt"
	"time"

	"pulsera/internal/models"
	"pulsera/internal/repository"
	"pulsera/internal/store"

	"go.uber.org/zap"
)

// AlertArchive 报警落盘留痕接口（可为 nil：无 DB 时纯内存运行）
type AlertArchive interface {
	InsertAlert(ctx context.Context, alert *models.Alert) error
	UpdateEscalation(ctx context.Context, alertID string, score float64, severity models.Severity) error
	UpdateResolved(ctx context.Context, alertID, acknowledgedBy string, resolvedAt time.Time) error
}

// AlertService 报警服务层
// 职责：
// 1. 评分范围校验（越界 fail fast，不截断）
// 2. 评分 -> 等级分类
// 3. 设备级去重/升级（委托 Store 原子完成）
// 4. 设备名册登记与归档留痕
type AlertService struct {
	alerts  *store.AlertStore
	devices *repository.DeviceRegistry
	archive AlertArchive
	logger  *zap.Logger
}

// NewAlertService 创建报警服务
func NewAlertService(
	alerts *store.AlertStore,
	devices *repository.DeviceRegistry,
	archive AlertArchive,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		alerts:  alerts,
		devices: devices,
		archive: archive,
		logger:  logger,
	}
}

// CreateIndividualAlert 按评分事件创建/升级个体报警
// 业务规则：
// - score 必须落在 [0,1]
// - 同一设备已有活跃报警时不产生新报警：等级升高则就地升级，否则静默丢弃
func (s *AlertService) CreateIndividualAlert(ctx context.Context, deviceID, zoneID string, score float64) (*models.Alert, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if err := models.ValidateScore(score); err != nil {
		return nil, err
	}

	severity := models.ClassifySeverity(score)
	alert, created, escalated := s.alerts.CreateOrEscalate(deviceID, zoneID, score, severity)

	// 登记设备，聚合视图才能统计到它
	s.devices.Upsert(models.Device{DeviceID: deviceID, ZoneID: zoneID})

	switch {
	case created:
		s.logger.Info("Alert created",
			zap.String("alert_id", alert.ID),
			zap.String("device_id", deviceID),
			zap.String("zone_id", zoneID),
			zap.Float64("score", score),
			zap.String("severity", severity.String()),
		)
		if s.archive != nil {
			if err := s.archive.InsertAlert(ctx, alert); err != nil {
				s.logger.Error("Failed to archive alert", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
	case escalated:
		s.logger.Info("Alert escalated",
			zap.String("alert_id", alert.ID),
			zap.String("device_id", deviceID),
			zap.Float64("score", score),
			zap.String("severity", severity.String()),
		)
		if s.archive != nil {
			if err := s.archive.UpdateEscalation(ctx, alert.ID, score, severity); err != nil {
				s.logger.Error("Failed to archive escalation", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
	default:
		// 等级未升高：丢弃事件，不算失败
		s.logger.Debug("Duplicate score event dropped",
			zap.String("alert_id", alert.ID),
			zap.String("device_id", deviceID),
			zap.Float64("score", score),
		)
	}

	return alert, nil
}

// Resolve 处理报警（未知 ID 透出 not-found；重复处理幂等成功）
func (s *AlertService) Resolve(ctx context.Context, alertID, acknowledgedBy string) (*models.Alert, error) {
	alert, err := s.alerts.MarkResolved(alertID, acknowledgedBy)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Alert resolved",
		zap.String("alert_id", alertID),
		zap.String("acknowledged_by", acknowledgedBy),
	)

	if s.archive != nil && alert.ResolvedAt != nil {
		ackBy := acknowledgedBy
		if alert.AcknowledgedBy != nil {
			ackBy = *alert.AcknowledgedBy
		}
		if err := s.archive.UpdateResolved(ctx, alertID, ackBy, *alert.ResolvedAt); err != nil {
			s.logger.Error("Failed to archive resolution", zap.String("alert_id", alertID), zap.Error(err))
		}
	}

	return alert, nil
}

// ListAlerts 报警快照（activeOnly=true 时只含活跃报警）
func (s *AlertService) ListAlerts(_ context.Context, activeOnly bool) []*models.Alert {
	if activeOnly {
		return s.alerts.ListActive()
	}
	return s.alerts.ListAll()
}

// GetAlert 按 ID 查询
func (s *AlertService) GetAlert(_ context.Context, alertID string) (*models.Alert, error) {
	return s.alerts.Get(alertID)
}
