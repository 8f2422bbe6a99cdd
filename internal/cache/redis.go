package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"

	"github.com/redis/go-redis/v9"
)

// store 进程内唯一的 Redis 连接与键前缀，未启用时 client 为 nil
type store struct {
	client *redis.Client
	prefix string
}

var active = store{prefix: constants.RedisPrefixDefault}

// InitRedis 连接 Redis 并探活，探活失败时保持禁用并返回错误
func InitRedis(cfg *config.RedisConfig) error {
	_ = Close()
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	dialTimeout := time.Duration(cfg.DialTimeoutSeconds) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: dialTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return errors.Join(errors.New("redis ping failed"), err)
	}

	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}
	active = store{client: client, prefix: prefix}
	return nil
}

// Enabled Redis 是否可用
func Enabled() bool {
	return active.client != nil
}

// Client 返回 Redis 客户端，未启用时为 nil
func Client() *redis.Client {
	return active.client
}

// Close 关闭连接并回到禁用状态
func Close() error {
	client := active.client
	active.client = nil
	if client == nil {
		return nil
	}
	return client.Close()
}

// GetJSON 读取 JSON 值，未命中或未启用时返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := active.client.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 以 JSON 写入并设置过期时间
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return active.client.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除键
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return active.client.Del(ctx, buildKey(key)).Err()
}

func buildKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return active.prefix
	}
	return active.prefix + ":" + key
}
