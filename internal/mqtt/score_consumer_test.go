package mqtt

import (
	"context"
	"testing"

	"pulsera/internal/config"
	"pulsera/internal/repository"
	"pulsera/internal/service"
	"pulsera/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestConsumer() (*ScoreConsumer, *store.AlertStore) {
	alerts := store.NewAlertStore()
	devices := repository.NewDeviceRegistry()
	alertSvc := service.NewAlertService(alerts, devices, nil, zap.NewNop())

	cfg := &config.MQTTConfig{Topic: "pulsera/scores"}
	consumer := &ScoreConsumer{
		cfg:      cfg,
		alertSvc: alertSvc,
		logger:   zap.NewNop(),
	}
	return consumer, alerts
}

func TestHandleMessage_CreatesAlert(t *testing.T) {
	consumer, alerts := setupTestConsumer()

	payload := []byte(`{"device_id":"dev-1","zone_id":"zone-1","score":0.9}`)
	require.NoError(t, consumer.handleMessage(context.Background(), "pulsera/scores", payload))

	active := alerts.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, "dev-1", active[0].DeviceID)
	assert.Equal(t, "zone-1", active[0].ZoneID)
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	consumer, alerts := setupTestConsumer()

	err := consumer.handleMessage(context.Background(), "pulsera/scores", []byte("{not json"))
	assert.Error(t, err)
	assert.Empty(t, alerts.ListAll())
}

func TestHandleMessage_MissingDeviceID(t *testing.T) {
	consumer, _ := setupTestConsumer()

	err := consumer.handleMessage(context.Background(), "pulsera/scores", []byte(`{"zone_id":"zone-1","score":0.9}`))
	assert.Error(t, err)
}

func TestHandleMessage_ScoreOutOfRange(t *testing.T) {
	consumer, alerts := setupTestConsumer()

	err := consumer.handleMessage(context.Background(), "pulsera/scores", []byte(`{"device_id":"dev-1","zone_id":"zone-1","score":2.5}`))
	assert.Error(t, err)
	assert.Empty(t, alerts.ListAll())
}
