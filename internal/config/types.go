// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（configs/{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	.env 文件同时被 Docker Compose（--env-file）、Go 应用（godotenv）共用。
//
// 环境：
//   - 开发: APP_ENV=dev（默认）→ configs/dev.yaml
//   - 测试: APP_ENV=test → configs/test.yaml
//   - 生产: APP_ENV=prod → configs/prod.yaml
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mongodb"（默认）或 "sqlite"
	URI      string `yaml:"uri"`    // MongoDB 连接 URI，如 mongodb://localhost:27017
	Name     string `yaml:"name"`   // MongoDB 数据库名称
	Path     string `yaml:"path"`   // SQLite 文件路径
	Password string `yaml:"-"`      // 只从 MONGO_ROOT_PASSWORD 环境变量读取
	User     string `yaml:"user"`
}

// MinIOConfig MinIO 对象存储配置（封面图）
// Endpoint 为空时禁用对象存储，封面图内嵌到博客文档中
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"` // 默认 blog-covers
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string        `yaml:"-"`         // 只从 JWT_SECRET 环境变量读取
	TokenTTL      time.Duration `yaml:"token_ttl"` // 例如 "168h"
	AdminEmail    string        `yaml:"-"`         // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword string        `yaml:"-"`         // 只从 ADMIN_PASSWORD 环境变量读取
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	APIPort  string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}
