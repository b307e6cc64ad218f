package models

// Reading 单次健康读数（由外部评分管线写入缓存，本服务只读其状态字段）
type Reading struct {
	UserID    string   `json:"user_id"`
	Status    string   `json:"status"` // no_data, normal, elevated, critical
	Score     *float64 `json:"score,omitempty"`
	HeartRate *int     `json:"heart_rate,omitempty"`
	Timestamp int64    `json:"timestamp"` // Unix 时间戳
}

// NoDataReading 无数据占位读数
func NoDataReading(userID string) Reading {
	return Reading{UserID: userID, Status: StatusNoData}
}
