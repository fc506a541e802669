package ormx

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DBConfig 数据库配置
type DBConfig struct {
	Debug              bool   `yaml:"debug" json:"debug" mapstructure:"debug"`
	DbType             string `yaml:"db-type" json:"dbType" mapstructure:"db-type"`
	DSN                string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	Host               string `yaml:"host" json:"host" mapstructure:"host"`
	Port               int    `yaml:"port" json:"port" mapstructure:"port"`
	Username           string `yaml:"username" json:"username" mapstructure:"username"`
	Password           string `yaml:"password" json:"password" mapstructure:"password"`
	Database           string `yaml:"database" json:"database" mapstructure:"database"`
	Charset            string `yaml:"charset" json:"charset" mapstructure:"charset"`
	AppendParams       string `yaml:"append-params" json:"appendParams" mapstructure:"append-params"`
	MaxLifetime        int    `yaml:"max-lifetime" json:"maxLifetime" mapstructure:"max-lifetime"`
	MaxOpenConnections int    `yaml:"max-open-connections" json:"maxOpenConnections" mapstructure:"max-open-connections"`
	MaxIdleConnections int    `yaml:"max-idle-connections" json:"maxIdleConnections" mapstructure:"max-idle-connections"`
	TablePrefix        string `yaml:"table-prefix" json:"tablePrefix" mapstructure:"table-prefix"`
}

// GetDSN 获取数据库连接字符串
func (c *DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.AppendParams == "" {
		c.AppendParams = "parseTime=True&loc=Local"
	}
	if c.Charset != "" && !strings.Contains(c.AppendParams, "charset") {
		c.AppendParams += fmt.Sprintf("&charset=%s", c.Charset)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.AppendParams,
	)
}

// NewDBClient 创建db客户端
func NewDBClient(c DBConfig) (*gorm.DB, error) {
	var dialect gorm.Dialector
	switch strings.ToLower(c.DbType) {
	case "mysql", "":
		dialect = mysql.Open(c.GetDSN())
	default:
		return nil, fmt.Errorf("dialector(%s) not supported", c.DbType)
	}
	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	}
	db, err := gorm.Open(dialect, gormConfig)
	if err != nil {
		return nil, err
	}
	if c.Debug {
		db = db.Debug()
	}
	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDb.SetMaxIdleConns(c.MaxIdleConnections)
	sqlDb.SetMaxOpenConns(c.MaxOpenConnections)
	sqlDb.SetConnMaxLifetime(time.Duration(c.MaxLifetime) * time.Second)
	return db, nil
}

// BaseModel 基础model
type BaseModel struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt *time.Time `json:"createdAt" gorm:"type:dateTime;autoCreateTime;not null;comment:'创建时间'"`
	UpdatedAt *time.Time `json:"updatedAt" gorm:"type:dateTime;autoUpdateTime;not null;comment:'更新时间'"`
}

// UuidModel 基础model
type UuidModel struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	CreatedAt *time.Time `json:"createdAt" gorm:"type:dateTime;autoCreateTime;not null;comment:'创建时间'"`
	UpdatedAt *time.Time `json:"updatedAt" gorm:"type:dateTime;autoUpdateTime;not null;comment:'更新时间'"`
}
