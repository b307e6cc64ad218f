package service

import (
	"context"
	"testing"
	"time"

	"pulsera/internal/models"
	"pulsera/internal/repository"
	"pulsera/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeArchive 记录归档调用（无 DB 测试）
type fakeArchive struct {
	inserted    []string
	escalated   []string
	resolved    []string
}

func (f *fakeArchive) InsertAlert(_ context.Context, alert *models.Alert) error {
	f.inserted = append(f.inserted, alert.ID)
	return nil
}

func (f *fakeArchive) UpdateEscalation(_ context.Context, alertID string, _ float64, _ models.Severity) error {
	f.escalated = append(f.escalated, alertID)
	return nil
}

func (f *fakeArchive) UpdateResolved(_ context.Context, alertID, _ string, _ time.Time) error {
	f.resolved = append(f.resolved, alertID)
	return nil
}

func setupAlertService(archive AlertArchive) (*AlertService, *store.AlertStore, *repository.DeviceRegistry) {
	alerts := store.NewAlertStore()
	devices := repository.NewDeviceRegistry()
	svc := NewAlertService(alerts, devices, archive, zap.NewNop())
	return svc, alerts, devices
}

func TestCreateIndividualAlert_Create(t *testing.T) {
	svc, alerts, devices := setupAlertService(nil)
	ctx := context.Background()

	alert, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.9)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.True(t, alert.IsActive)

	// 创建后该设备恰有一条活跃报警
	assert.Equal(t, 1, alerts.ActiveCountByDevice("dev-1"))

	// 设备自动登记进名册
	d, ok := devices.Get("dev-1")
	require.True(t, ok)
	assert.Equal(t, "zone-1", d.ZoneID)
}

func TestCreateIndividualAlert_ScoreValidation(t *testing.T) {
	svc, alerts, _ := setupAlertService(nil)
	ctx := context.Background()

	_, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 1.5)
	assert.ErrorIs(t, err, models.ErrScoreOutOfRange)

	_, err = svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", -0.2)
	assert.ErrorIs(t, err, models.ErrScoreOutOfRange)

	// 校验失败不触碰存储
	assert.Empty(t, alerts.ListAll())
}

func TestCreateIndividualAlert_RequiresDeviceID(t *testing.T) {
	svc, _, _ := setupAlertService(nil)

	_, err := svc.CreateIndividualAlert(context.Background(), "", "zone-1", 0.9)
	assert.Error(t, err)
}

func TestCreateIndividualAlert_DedupSameDevice(t *testing.T) {
	svc, alerts, _ := setupAlertService(nil)
	ctx := context.Background()

	first, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.9)
	require.NoError(t, err)

	// 第二个高分事件不会增加该设备的活跃报警数
	second, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.95)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, alerts.ActiveCountByDevice("dev-1"))
	assert.Len(t, alerts.ListActive(), 1)
}

func TestCreateIndividualAlert_EscalatesOnHigherSeverity(t *testing.T) {
	archive := &fakeArchive{}
	svc, _, _ := setupAlertService(archive)
	ctx := context.Background()

	first, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.6)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityElevated, first.Severity)

	escalated, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.9)
	require.NoError(t, err)
	assert.Equal(t, first.ID, escalated.ID)
	assert.Equal(t, models.SeverityCritical, escalated.Severity)
	assert.Equal(t, 0.9, escalated.Score)

	assert.Equal(t, []string{first.ID}, archive.inserted)
	assert.Equal(t, []string{first.ID}, archive.escalated)
}

func TestResolve_Flow(t *testing.T) {
	archive := &fakeArchive{}
	svc, alerts, _ := setupAlertService(archive)
	ctx := context.Background()

	alert, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.9)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, alert.ID, "nurse-1")
	require.NoError(t, err)
	assert.False(t, resolved.IsActive)
	require.NotNil(t, resolved.AcknowledgedBy)
	assert.Equal(t, "nurse-1", *resolved.AcknowledgedBy)

	assert.Empty(t, alerts.ListActive())
	assert.Len(t, alerts.ListAll(), 1)
	assert.Equal(t, []string{alert.ID}, archive.resolved)

	// 处理后同设备可产生新报警
	fresh, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.85)
	require.NoError(t, err)
	assert.NotEqual(t, alert.ID, fresh.ID)
	assert.Equal(t, 1, alerts.ActiveCountByDevice("dev-1"))
}

func TestResolve_NotFound(t *testing.T) {
	svc, _, _ := setupAlertService(nil)

	_, err := svc.Resolve(context.Background(), uuid.NewString(), "nurse-1")
	assert.ErrorIs(t, err, store.ErrAlertNotFound)
}

func TestListAlerts(t *testing.T) {
	svc, _, _ := setupAlertService(nil)
	ctx := context.Background()

	a1, err := svc.CreateIndividualAlert(ctx, "dev-1", "zone-1", 0.9)
	require.NoError(t, err)
	_, err = svc.CreateIndividualAlert(ctx, "dev-2", "zone-1", 0.85)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, a1.ID, "nurse-1")
	require.NoError(t, err)

	all := svc.ListAlerts(ctx, false)
	assert.Len(t, all, 2)

	active := svc.ListAlerts(ctx, true)
	require.Len(t, active, 1)
	assert.Equal(t, "dev-2", active[0].DeviceID)
}
