package models

import "time"

// 组类型
const (
	GroupTypeFamily    = "family"
	GroupTypeCommunity = "community"
)

// Group 家庭/社区分组
// member_count 由成员关系推导，仓库层在成员变更时保持同步
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"` // family, community
	OwnerID     string    `json:"owner_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Device 设备登记信息（zone 用于聚合分片）
type Device struct {
	DeviceID string `json:"device_id"`
	ZoneID   string `json:"zone_id"`
	OwnerID  string `json:"owner_id,omitempty"`
}
