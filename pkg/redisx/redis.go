package redisx

import (
	"context"
	"strings"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
)

type RedisConfig struct {
	Address   string `json:"address" yaml:"address" mapstructure:"address"`
	Username  string `json:"username" yaml:"username" mapstructure:"username"`
	Password  string `json:"password" yaml:"password" mapstructure:"password"`
	DB        int    `json:"db" yaml:"db" mapstructure:"db"`
	RedisType string `json:"redisType" yaml:"redis-type" mapstructure:"redis-type"`
}

type Redis redis.Cmdable

func NewRedis(cfg RedisConfig) (Redis, error) {
	var redisClient Redis

	switch cfg.RedisType {
	case "standalone", "":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

	case "cluster":
		redisClient = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    strings.Split(cfg.Address, ","),
			Username: cfg.Username,
			Password: cfg.Password,
		})

	case "miniredis":
		s, err := miniredis.Run()
		if err != nil {
			logs.Errorf("failed to initial miniredis: %v", err)
			return nil, err
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr: s.Addr(),
		})

	default:
		logs.Errorf("failed to initial redisx, redisx type is illegal: %s", cfg.RedisType)
		return nil, errIllegalRedisType
	}

	err := redisClient.Ping(context.Background()).Err()
	if err != nil {
		logs.Errorf("failed to ping redisx: %v", err)
		return nil, err
	}
	return redisClient, nil
}
