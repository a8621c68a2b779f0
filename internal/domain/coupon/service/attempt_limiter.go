package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter 校验尝试限流接口，便于在测试中替换
type AttemptLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// redisAttemptLimiter 基于 Redis INCR + EXPIRE 的滑动窗口限流
// 按用户维度限制优惠码校验尝试，防止暴力枚举码
type redisAttemptLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisAttemptLimiter(rdb *redis.Client, limit int) AttemptLimiter {
	if limit <= 0 {
		limit = 5
	}
	return &redisAttemptLimiter{
		rdb:    rdb,
		limit:  limit,
		window: time.Minute,
	}
}

func (l *redisAttemptLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("coupon:attempts:%s", userID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	// 第一次计数时设置窗口过期
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.limit), nil
}
