package util

import (
	"encoding/json"

	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
)

// ToJsonIgnoreError 序列化为json，忽略错误
func ToJsonIgnoreError(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		logs.Errorf("marshal json error: %v", err)
		return ""
	}
	return string(data)
}
