package models

import (
	"time"
)

// Alert 个体报警（按设备去重：每台设备同时最多一条活跃报警）
type Alert struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"device_id"`
	ZoneID         string     `json:"zone_id"`
	Score          float64    `json:"score"`
	Severity       Severity   `json:"severity"`
	IsActive       bool       `json:"is_active"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Clone 深拷贝（Store 对外只交出副本，避免调用方看到半写状态）
func (a *Alert) Clone() *Alert {
	cp := *a
	if a.AcknowledgedBy != nil {
		v := *a.AcknowledgedBy
		cp.AcknowledgedBy = &v
	}
	if a.ResolvedAt != nil {
		v := *a.ResolvedAt
		cp.ResolvedAt = &v
	}
	return &cp
}
