package service

import (
	"context"
	"fmt"
	"sort"

	"pulsera/internal/models"
	"pulsera/internal/repository"
	"pulsera/internal/store"
)

// SeverityBreakdown 活跃报警按等级分布
type SeverityBreakdown struct {
	Normal   int `json:"normal"`
	Elevated int `json:"elevated"`
	Critical int `json:"critical"`
}

// ZonePulse 单个 zone 的脉搏视图
type ZonePulse struct {
	ZoneID            string            `json:"zone_id"`
	DeviceCount       int               `json:"device_count"`
	ActiveAlerts      int               `json:"active_alerts"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
	OverallStatus     string            `json:"overall_status"`
}

// CommunityPulse 社区脉搏（全 zone 明细 + 设备总数）
type CommunityPulse struct {
	Zones        []ZonePulse `json:"zones"`
	TotalDevices int         `json:"total_devices"`
}

// CommunitySummary 社区总览（跨 zone 的最高等级 + 明细）
type CommunitySummary struct {
	OverallStatus string      `json:"overall_status"`
	Zones         []ZonePulse `json:"zones"`
}

// GroupPulse 分组脉搏视图
type GroupPulse struct {
	GroupID         string         `json:"group_id"`
	GroupType       string         `json:"group_type"`
	Name            string         `json:"name"`
	MemberCount     int            `json:"member_count"`
	OverallStatus   string         `json:"overall_status"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
}

// ReadingProvider 健康读数来源（组脉搏只消费其 status 字段）
type ReadingProvider interface {
	Latest(ctx context.Context, userID string) (models.Reading, error)
}

// PulseService 聚合引擎
// 纯读侧投影：每次调用先取一致快照，再在锁外计算；
// 无变更时重复调用产出逐字节一致的结果
type PulseService struct {
	alerts   *store.AlertStore
	devices  *repository.DeviceRegistry
	groups   *repository.MemoryGroupsRepo
	readings ReadingProvider
}

// NewPulseService 创建聚合引擎
func NewPulseService(
	alerts *store.AlertStore,
	devices *repository.DeviceRegistry,
	groups *repository.MemoryGroupsRepo,
	readings ReadingProvider,
) *PulseService {
	return &PulseService{
		alerts:   alerts,
		devices:  devices,
		groups:   groups,
		readings: readings,
	}
}

// CommunityPulse 社区脉搏
func (s *PulseService) CommunityPulse(_ context.Context) CommunityPulse {
	devices := s.devices.Snapshot()
	active := s.alerts.ListActive()

	return CommunityPulse{
		Zones:        BuildZonePulses(devices, active),
		TotalDevices: len(devices),
	}
}

// CommunitySummary 社区总览
func (s *PulseService) CommunitySummary(_ context.Context) CommunitySummary {
	devices := s.devices.Snapshot()
	active := s.alerts.ListActive()

	zones := BuildZonePulses(devices, active)
	return CommunitySummary{
		OverallStatus: reduceZoneStatus(zones),
		Zones:         zones,
	}
}

// GroupPulse 分组脉搏（由成员最新读数状态归约，成员名下设备的活跃报警可抬升其状态）
func (s *PulseService) GroupPulse(ctx context.Context, groupID string) (GroupPulse, error) {
	group, err := s.groups.Get(groupID)
	if err != nil {
		return GroupPulse{}, err
	}
	members, err := s.groups.Members(groupID)
	if err != nil {
		return GroupPulse{}, err
	}

	alertStatus := map[string]string{}
	for _, a := range s.alerts.ListActive() {
		alertStatus[a.DeviceID] = maxStatus(alertStatus[a.DeviceID], a.Severity.String())
	}

	breakdown := map[string]int{
		models.StatusNoData:   0,
		models.StatusNormal:   0,
		models.StatusElevated: 0,
		models.StatusCritical: 0,
	}
	overall := models.StatusNoData
	for _, userID := range members {
		reading, err := s.readings.Latest(ctx, userID)
		if err != nil {
			return GroupPulse{}, fmt.Errorf("failed to read member status: %w", err)
		}
		status := reading.Status
		if _, ok := breakdown[status]; !ok {
			status = models.StatusNoData
		}
		for _, d := range s.devices.DevicesByOwner(userID) {
			status = maxStatus(status, alertStatus[d.DeviceID])
		}
		breakdown[status]++
		overall = maxStatus(overall, status)
	}

	return GroupPulse{
		GroupID:         group.ID,
		GroupType:       group.Type,
		Name:            group.Name,
		MemberCount:     group.MemberCount,
		OverallStatus:   overall,
		StatusBreakdown: breakdown,
	}, nil
}

// BuildZonePulses 由设备名册快照和活跃报警快照计算各 zone 视图
// 输出按 zone_id 升序；零设备/零报警时给出中性状态，不报错
func BuildZonePulses(devices []models.Device, active []*models.Alert) []ZonePulse {
	pulses := map[string]*ZonePulse{}

	zone := func(zoneID string) *ZonePulse {
		p, ok := pulses[zoneID]
		if !ok {
			p = &ZonePulse{ZoneID: zoneID, OverallStatus: models.StatusNoData}
			pulses[zoneID] = p
		}
		return p
	}

	for _, d := range devices {
		p := zone(d.ZoneID)
		p.DeviceCount++
		if p.OverallStatus == models.StatusNoData {
			p.OverallStatus = models.StatusNormal
		}
	}

	for _, a := range active {
		p := zone(a.ZoneID)
		p.ActiveAlerts++
		switch a.Severity {
		case models.SeverityCritical:
			p.SeverityBreakdown.Critical++
		case models.SeverityElevated:
			p.SeverityBreakdown.Elevated++
		default:
			p.SeverityBreakdown.Normal++
		}
		p.OverallStatus = maxStatus(p.OverallStatus, a.Severity.String())
	}

	result := make([]ZonePulse, 0, len(pulses))
	for _, p := range pulses {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ZoneID < result[j].ZoneID
	})
	return result
}

// reduceZoneStatus 跨 zone 归约出整体状态
func reduceZoneStatus(zones []ZonePulse) string {
	overall := models.StatusNoData
	for _, z := range zones {
		overall = maxStatus(overall, z.OverallStatus)
	}
	if len(zones) == 0 {
		return models.StatusNoData
	}
	return overall
}

// statusRank 状态排序：no_data < normal < elevated < critical
var statusRank = map[string]int{
	models.StatusNoData:   0,
	models.StatusNormal:   1,
	models.StatusElevated: 2,
	models.StatusCritical: 3,
}

func maxStatus(a, b string) string {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}
