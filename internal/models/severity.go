package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Severity 风险等级（全序枚举：normal < elevated < critical）
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityElevated
	SeverityCritical
)

// 分级阈值（左闭区间：score >= 阈值即进入该级）
const (
	ElevatedThreshold = 0.5
	CriticalThreshold = 0.8
)

// ErrScoreOutOfRange 评分超出 [0,1] 范围
var ErrScoreOutOfRange = errors.New("score out of range [0,1]")

// ClassifySeverity 将异常评分映射为风险等级
// 纯函数，对全定义域单调：评分越高等级不会越低
func ClassifySeverity(score float64) Severity {
	switch {
	case score >= CriticalThreshold:
		return SeverityCritical
	case score >= ElevatedThreshold:
		return SeverityElevated
	default:
		return SeverityNormal
	}
}

// ValidateScore 校验评分范围（摄入入口调用，越界直接拒绝不做截断）
func ValidateScore(score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	return nil
}

// MaxSeverity 取两个等级中的较高者（用于聚合归约）
func MaxSeverity(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityElevated:
		return "elevated"
	default:
		return "normal"
	}
}

// ParseSeverity 解析等级字符串（未知值报错）
func ParseSeverity(v string) (Severity, error) {
	switch v {
	case "normal":
		return SeverityNormal, nil
	case "elevated":
		return SeverityElevated, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityNormal, fmt.Errorf("unknown severity: %q", v)
	}
}

// MarshalJSON 序列化为 "normal"/"elevated"/"critical"
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON 从字符串反序列化
func (s *Severity) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseSeverity(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// 聚合状态值（在 Severity 三级之外补充 no_data 中性态）
const (
	StatusNoData   = "no_data"
	StatusNormal   = "normal"
	StatusElevated = "elevated"
	StatusCritical = "critical"
)
