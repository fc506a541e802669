package cfg

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// LoadConfig 加载配置文件并反序列化到 ptr, 使用独立的 viper 实例避免污染全局状态
func LoadConfig(configDir, configFile, configSuffix string, ptr interface{}) error {
	v := viper.New()
	v.SetConfigName(configFile)
	v.AddConfigPath(configDir)
	v.SetConfigType(configSuffix)

	desc := fmt.Sprintf("配置文件：%s, 配置目录：%s, 配置文件类型：%s", configFile, configDir, configSuffix)
	if err := v.ReadInConfig(); err != nil {
		return errors.WithMessagef(err, "读取配置文件失败，%s", desc)
	}
	if err := v.Unmarshal(ptr); err != nil {
		return errors.WithMessagef(err, "解析配置文件失败，%s", desc)
	}
	return nil
}
