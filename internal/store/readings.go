package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pulsera/internal/models"

	"go.uber.org/zap"
)

// 缓存键格式（外部评分管线按同一约定写入）
const (
	readingLatestKeyFmt  = "pulsera:health:%s:latest"
	readingHistoryKeyFmt = "pulsera:health:%s:history"

	// 历史读数保留上限（超出后丢弃最旧的）
	maxHistoryLen = 288
)

// ReadingStore 健康读数缓存（每用户 latest + history 两个键）
type ReadingStore struct {
	kv     KV
	logger *zap.Logger
}

// NewReadingStore 创建读数缓存
func NewReadingStore(kv KV, logger *zap.Logger) *ReadingStore {
	return &ReadingStore{kv: kv, logger: logger}
}

// Latest 最近一次读数；无数据时返回 no_data 占位，不报错
func (s *ReadingStore) Latest(ctx context.Context, userID string) (models.Reading, error) {
	key := fmt.Sprintf(readingLatestKeyFmt, userID)

	val, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return models.NoDataReading(userID), nil
		}
		return models.NoDataReading(userID), fmt.Errorf("failed to get latest reading: %w", err)
	}

	var reading models.Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		s.logger.Warn("Corrupt latest reading in cache, treating as no data",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return models.NoDataReading(userID), nil
	}
	reading.UserID = userID
	return reading, nil
}

// History 历史读数（时间升序）；无数据时返回空列表
func (s *ReadingStore) History(ctx context.Context, userID string) ([]models.Reading, error) {
	key := fmt.Sprintf(readingHistoryKeyFmt, userID)

	val, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return []models.Reading{}, nil
		}
		return nil, fmt.Errorf("failed to get reading history: %w", err)
	}

	var history []models.Reading
	if err := json.Unmarshal([]byte(val), &history); err != nil {
		s.logger.Warn("Corrupt reading history in cache, treating as empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return []models.Reading{}, nil
	}
	return history, nil
}

// Record 写入一次读数（替换 latest，追加 history，超限裁剪）
func (s *ReadingStore) Record(ctx context.Context, reading models.Reading) error {
	if reading.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	latest, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	if err := s.kv.Set(ctx, fmt.Sprintf(readingLatestKeyFmt, reading.UserID), string(latest), 0); err != nil {
		return fmt.Errorf("failed to set latest reading: %w", err)
	}

	history, err := s.History(ctx, reading.UserID)
	if err != nil {
		return err
	}
	history = append(history, reading)
	if len(history) > maxHistoryLen {
		history = history[len(history)-maxHistoryLen:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal reading history: %w", err)
	}
	if err := s.kv.Set(ctx, fmt.Sprintf(readingHistoryKeyFmt, reading.UserID), string(data), 0); err != nil {
		return fmt.Errorf("failed to set reading history: %w", err)
	}

	return nil
}
