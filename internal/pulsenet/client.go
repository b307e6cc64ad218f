package pulsenet

import (
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Status PulseNet 模型加载状态
type Status struct {
	Loaded  bool   `json:"loaded"`
	Version string `json:"version,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// TrainingHistory 模型训练历史
type TrainingHistory struct {
	Available bool              `json:"available"`
	Epochs    []json.RawMessage `json:"epochs,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}

// Client PulseNet 模型服务客户端
// 异常评分模型对本服务是黑盒，这里只代理状态/训练历史两个只读接口；
// 模型服务不可达时降级为"未加载/不可用"，不把错误抛给前端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
	configured bool
}

// NewClient 创建 PulseNet 客户端（baseURL 为空表示未接入模型服务）
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
		configured: baseURL != "",
	}
}

// Status 查询模型加载状态
func (c *Client) Status() Status {
	if !c.configured {
		return Status{Loaded: false, Detail: "model service not configured"}
	}

	var status Status
	resp, err := c.httpClient.R().
		SetResult(&status).
		Get("/model/status")

	if err != nil {
		c.logger.Warn("PulseNet status call failed", zap.Error(err))
		return Status{Loaded: false, Detail: "model service unreachable"}
	}
	if resp.IsError() {
		c.logger.Warn("PulseNet status returned error",
			zap.Int("status_code", resp.StatusCode()),
		)
		return Status{Loaded: false, Detail: "model service error"}
	}

	return status
}

// TrainingHistory 查询训练历史
func (c *Client) TrainingHistory() TrainingHistory {
	if !c.configured {
		return TrainingHistory{Available: false, Detail: "model service not configured"}
	}

	var history TrainingHistory
	resp, err := c.httpClient.R().
		SetResult(&history).
		Get("/model/training-history")

	if err != nil {
		c.logger.Warn("PulseNet training-history call failed", zap.Error(err))
		return TrainingHistory{Available: false, Detail: "model service unreachable"}
	}
	if resp.IsError() {
		c.logger.Warn("PulseNet training-history returned error",
			zap.Int("status_code", resp.StatusCode()),
		)
		return TrainingHistory{Available: false, Detail: "model service error"}
	}

	return history
}
