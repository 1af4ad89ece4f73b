package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int      `toml:"port"`
	DevMode      bool     `toml:"dev_mode"`
	AllowOrigins []string `toml:"allow_origins"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir        string `toml:"data_dir"`
	DBName         string `toml:"db_name"`
	ArchiveDeleted bool   `toml:"archive_deleted"` // 删除前归档到 deleted_quotations
}

// ImportConfig 导入配置
type ImportConfig struct {
	SessionBackend    string `toml:"session_backend"` // memory / sqlite
	SessionTTLMinutes int    `toml:"session_ttl_minutes"`
	MaxHeaderRows     int    `toml:"max_header_rows"`
	MaxSearchRows     int    `toml:"max_search_rows"`
	MaxUploadMB       int    `toml:"max_upload_mb"`
}

// 会话存储类型
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
)

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         20262,
			DevMode:      false,
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Data: DataConfig{
			DataDir:        "data",
			DBName:         "quotedesk.db",
			ArchiveDeleted: true,
		},
		Import: ImportConfig{
			SessionBackend:    SessionBackendMemory,
			SessionTTLMinutes: 120,
			MaxHeaderRows:     2,
			MaxSearchRows:     8,
			MaxUploadMB:       20,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	// .env 可选
	if err := godotenv.Load(filepath.Join(exeDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("加载 .env 失败: %v", err)
	}

	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载配置，文件不存在时使用默认配置；环境变量最后覆盖
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config, &info)
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := strings.TrimSpace(os.Getenv("QUOTEDESK_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		} else {
			log.Printf("忽略无效的 QUOTEDESK_PORT: %q", v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("QUOTEDESK_DATA_DIR")); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("QUOTEDESK_SESSION_BACKEND")); v != "" {
		config.Import.SessionBackend = strings.ToLower(v)
	}
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// resolveDataDir 相对路径以可执行文件目录为基准
func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DBPath 数据库文件路径
func DBPath(config *AppConfig) string {
	name := config.Data.DBName
	if name == "" {
		name = "quotedesk.db"
	}
	return filepath.Join(resolveDataDir(config), name)
}
