package repository

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pulsera/internal/models"

	"github.com/google/uuid"
)

// ErrGroupNotFound 分组不存在
var ErrGroupNotFound = errors.New("group not found")

// MemoryGroupsRepo 内存分组仓库
// - member_count 不单独存储，由 members 集合推导
// - 创建者自动成为首个成员
type MemoryGroupsRepo struct {
	mu      sync.RWMutex
	groups  map[string]models.Group
	members map[string]map[string]struct{} // groupID -> userID set
}

// NewMemoryGroupsRepo 创建分组仓库
func NewMemoryGroupsRepo() *MemoryGroupsRepo {
	return &MemoryGroupsRepo{
		groups:  map[string]models.Group{},
		members: map[string]map[string]struct{}{},
	}
}

// Create 创建分组（type 仅接受 family/community）
func (r *MemoryGroupsRepo) Create(ownerID, name, description, groupType string) (models.Group, error) {
	if name == "" {
		return models.Group{}, fmt.Errorf("group name is required")
	}
	if groupType != models.GroupTypeFamily && groupType != models.GroupTypeCommunity {
		return models.Group{}, fmt.Errorf("unknown group type: %q", groupType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g := models.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Type:        groupType,
		OwnerID:     ownerID,
		MemberCount: 1,
		CreatedAt:   time.Now().UTC(),
	}
	r.groups[g.ID] = g
	r.members[g.ID] = map[string]struct{}{ownerID: {}}

	return g, nil
}

// Get 查询分组
func (r *MemoryGroupsRepo) Get(groupID string) (models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupID]
	if !ok {
		return models.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return g, nil
}

// ListForUser 列出用户所在的分组（创建时间升序）
func (r *MemoryGroupsRepo) ListForUser(userID string) []models.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Group, 0)
	for id, members := range r.members {
		if _, ok := members[userID]; ok {
			result = append(result, r.groups[id])
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Join 加入分组（重复加入是无操作成功）
func (r *MemoryGroupsRepo) Join(groupID, userID string) (models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return models.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	r.members[groupID][userID] = struct{}{}
	g.MemberCount = len(r.members[groupID])
	r.groups[groupID] = g

	return g, nil
}

// Members 成员快照（user_id 升序）
func (r *MemoryGroupsRepo) Members(groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.members[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	result := make([]string, 0, len(members))
	for id := range members {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}
