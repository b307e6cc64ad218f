package repository

import (
	"sort"
	"sync"

	"pulsera/internal/models"
)

// DeviceRegistry 设备名册（device_id -> zone/owner）
// 聚合引擎用它回答"每个 zone 有多少设备"；报警摄入时自动登记
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]models.Device
}

// NewDeviceRegistry 创建设备名册
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{
		devices: map[string]models.Device{},
	}
}

// Upsert 登记/更新设备（zone 迁移时覆盖）
func (r *DeviceRegistry) Upsert(device models.Device) {
	if device.DeviceID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.devices[device.DeviceID]; ok && device.OwnerID == "" {
		device.OwnerID = existing.OwnerID
	}
	r.devices[device.DeviceID] = device
}

// Get 查询设备
func (r *DeviceRegistry) Get(deviceID string) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	return d, ok
}

// Snapshot 全量快照（device_id 升序，保证聚合输出确定）
func (r *DeviceRegistry) Snapshot() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DeviceID < result[j].DeviceID
	})
	return result
}

// Count 设备总数
func (r *DeviceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// DevicesByOwner 按属主查询（组脉搏视图用）
func (r *DeviceRegistry) DevicesByOwner(ownerID string) []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []models.Device
	for _, d := range r.devices {
		if d.OwnerID == ownerID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DeviceID < result[j].DeviceID
	})
	return result
}
