package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"pulsera/internal/config"
	"pulsera/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ScoreMessage 设备上报的评分消息
// topic: pulsera/scores，payload 为单条 JSON
type ScoreMessage struct {
	DeviceID string  `json:"device_id"`
	ZoneID   string  `json:"zone_id"`
	Score    float64 `json:"score"`
}

// ScoreConsumer MQTT 评分摄入（HTTP POST /api/alerts 之外的第二条摄入通道）
type ScoreConsumer struct {
	client   mqtt.Client
	cfg      *config.MQTTConfig
	alertSvc *service.AlertService
	logger   *zap.Logger
}

// NewScoreConsumer 创建评分消费者并连接 Broker
func NewScoreConsumer(cfg *config.MQTTConfig, alertSvc *service.AlertService, logger *zap.Logger) (*ScoreConsumer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &ScoreConsumer{
		client:   client,
		cfg:      cfg,
		alertSvc: alertSvc,
		logger:   logger,
	}, nil
}

// Start 订阅评分主题
func (c *ScoreConsumer) Start(ctx context.Context) error {
	token := c.client.Subscribe(c.cfg.Topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := c.handleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
			// 记录错误，但不中断订阅
			c.logger.Error("Failed to handle score message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.Topic, token.Error())
	}

	c.logger.Info("MQTT score consumer started",
		zap.String("broker", c.cfg.Broker),
		zap.String("topic", c.cfg.Topic),
	)
	return nil
}

// handleMessage 解析并摄入一条评分消息
func (c *ScoreConsumer) handleMessage(ctx context.Context, topic string, payload []byte) error {
	var msg ScoreMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal score message: %w", err)
	}
	if msg.DeviceID == "" {
		return fmt.Errorf("score message missing device_id (topic=%s)", topic)
	}

	if _, err := c.alertSvc.CreateIndividualAlert(ctx, msg.DeviceID, msg.ZoneID, msg.Score); err != nil {
		return fmt.Errorf("failed to ingest score for device %s: %w", msg.DeviceID, err)
	}
	return nil
}

// Stop 断开连接
func (c *ScoreConsumer) Stop() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Unsubscribe(c.cfg.Topic)
		c.client.Disconnect(250)
	}
	c.logger.Info("MQTT score consumer stopped")
}
