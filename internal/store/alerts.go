package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pulsera/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrAlertNotFound 报警不存在
	ErrAlertNotFound = errors.New("alert not found")
	// ErrActiveAlertExists 同一设备已有活跃报警（冲突）
	ErrActiveAlertExists = errors.New("active alert already exists for device")
)

// AlertStore 内存报警表
// - 主索引：alert_id -> Alert
// - 活跃索引：device_id -> alert_id（保证每台设备最多一条活跃报警）
// 所有写操作在同一把锁下串行；读操作只交出副本快照
type AlertStore struct {
	mu       sync.RWMutex
	alerts   map[string]*models.Alert
	activeBy map[string]string // device_id -> alert_id
	seq      map[string]int64  // alert_id -> 插入序号（同一时刻创建时保证排序稳定）
	nextSeq  int64
}

// NewAlertStore 创建报警存储
func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts:   map[string]*models.Alert{},
		activeBy: map[string]string{},
		seq:      map[string]int64{},
	}
}

// Insert 插入报警
// 同一设备已有其它活跃报警时返回 ErrActiveAlertExists
func (s *AlertStore) Insert(alert *models.Alert) error {
	if alert == nil || alert.ID == "" {
		return fmt.Errorf("alert id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.activeBy[alert.DeviceID]; ok && existing != alert.ID && alert.IsActive {
		return fmt.Errorf("%w: device %s", ErrActiveAlertExists, alert.DeviceID)
	}

	s.insertLocked(alert.Clone())
	return nil
}

func (s *AlertStore) insertLocked(alert *models.Alert) {
	s.alerts[alert.ID] = alert
	s.nextSeq++
	s.seq[alert.ID] = s.nextSeq
	if alert.IsActive {
		s.activeBy[alert.DeviceID] = alert.ID
	}
}

// CreateOrEscalate 设备级去重创建（原子操作，对应 dedup-check-then-insert）
// - 无活跃报警：新建并返回 (alert, created=true, escalated=false)
// - 已有活跃报警且新等级更高：就地升级 score/severity，(alert, false, true)
// - 已有活跃报警且新等级不高于现值：静默丢弃，返回现有报警 (alert, false, false)
func (s *AlertStore) CreateOrEscalate(deviceID, zoneID string, score float64, severity models.Severity) (*models.Alert, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.activeBy[deviceID]; ok {
		existing := s.alerts[id]
		if severity > existing.Severity {
			existing.Score = score
			existing.Severity = severity
			return existing.Clone(), false, true
		}
		return existing.Clone(), false, false
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		ZoneID:    zoneID,
		Score:     score,
		Severity:  severity,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	s.insertLocked(alert)
	return alert.Clone(), true, false
}

// Get 按 ID 查询
func (s *AlertStore) Get(id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return alert.Clone(), nil
}

// ListAll 全量快照（创建时间倒序，最新在前）
func (s *AlertStore) ListAll() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		result = append(result, a.Clone())
	}
	s.sortNewestFirst(result)
	return result
}

// ListActive 活跃报警快照（创建时间倒序）
func (s *AlertStore) ListActive() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Alert, 0, len(s.activeBy))
	for _, id := range s.activeBy {
		result = append(result, s.alerts[id].Clone())
	}
	s.sortNewestFirst(result)
	return result
}

// sortNewestFirst 创建时间倒序，时间相同时按插入序号倒序（保证输出确定）
// 调用方需持有读锁（seq 访问）
func (s *AlertStore) sortNewestFirst(alerts []*models.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return s.seq[alerts[i].ID] > s.seq[alerts[j].ID]
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
}

// MarkResolved 标记报警已处理
// - 未知 ID 返回 ErrAlertNotFound
// - 已处理的报警重复 resolve 是幂等成功（返回现值，不报错）
func (s *AlertStore) MarkResolved(id, acknowledgedBy string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}

	if !alert.IsActive {
		return alert.Clone(), nil
	}

	now := time.Now().UTC()
	alert.IsActive = false
	alert.ResolvedAt = &now
	if acknowledgedBy != "" {
		alert.AcknowledgedBy = &acknowledgedBy
	}
	delete(s.activeBy, alert.DeviceID)

	return alert.Clone(), nil
}

// ActiveCountByDevice 指定设备当前活跃报警数（0 或 1）
func (s *AlertStore) ActiveCountByDevice(deviceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.activeBy[deviceID]; ok {
		return 1
	}
	return 0
}
