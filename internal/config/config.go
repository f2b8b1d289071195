package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
)

// 环境变量
const (
	EnvDataDir      = "PRICECHECK_DATA_DIR"
	EnvPort         = "PRICECHECK_PORT"
	EnvPricePercent = "PRICECHECK_PRICE_RANGE_PERCENT"
)

// FileName 配置文件名
const FileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Review ReviewConfig `toml:"review"`
	Sheets SheetsConfig `toml:"sheets"`
	Fields FieldsConfig `toml:"fields"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ReviewConfig 审核配置
type ReviewConfig struct {
	// PriceRangePercent 人工价格相对推荐价格允许的浮动百分比
	PriceRangePercent float64 `toml:"price_range_percent"`
}

// SheetsConfig 各表的默认表头行、备注行与导出设置
type SheetsConfig struct {
	SKUHeaderRow      int  `toml:"sku_header_row"`
	ToolHeaderRow     int  `toml:"tool_header_row"`
	CampaignHeaderRow int  `toml:"campaign_header_row"`
	RemarkStart       int  `toml:"remark_start"`
	RemarkEnd         int  `toml:"remark_end"`
	AuditColumn       int  `toml:"audit_column"`
	IntegerPrices     bool `toml:"integer_prices"`
}

// FieldsConfig 列名绑定
type FieldsConfig struct {
	ProductID   string `toml:"product_id"`
	VariationID string `toml:"variation_id"`
	SKU         string `toml:"sku"`
	ParentSKU   string `toml:"parent_sku"`
	ToolSKU     string `toml:"tool_sku"`
	ToolPrice   string `toml:"tool_price"`
	Price       string `toml:"price"`
	Recommended string `toml:"recommended"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	f := model.DefaultFields()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Review: ReviewConfig{
			PriceRangePercent: 50,
		},
		Sheets: SheetsConfig{
			SKUHeaderRow:      3,
			ToolHeaderRow:     2,
			CampaignHeaderRow: 1,
			RemarkStart:       2,
			RemarkEnd:         3,
			AuditColumn:       16,
			IntegerPrices:     false,
		},
		Fields: FieldsConfig{
			ProductID:   f.ProductID,
			VariationID: f.VariationID,
			SKU:         f.SKU,
			ParentSKU:   f.ParentSKU,
			ToolSKU:     f.ToolSKU,
			ToolPrice:   f.ToolPrice,
			Price:       f.Price,
			Recommended: f.Recommended,
		},
	}
}

// ModelFields 转为列名绑定，未配置的列使用默认列名
func (c *AppConfig) ModelFields() model.Fields {
	return model.Fields{
		ProductID:   c.Fields.ProductID,
		VariationID: c.Fields.VariationID,
		SKU:         c.Fields.SKU,
		ParentSKU:   c.Fields.ParentSKU,
		ToolSKU:     c.Fields.ToolSKU,
		ToolPrice:   c.Fields.ToolPrice,
		Price:       c.Fields.Price,
		Recommended: c.Fields.Recommended,
	}.WithDefaults()
}

// PricePercent 浮动百分比
func (c *AppConfig) PricePercent() decimal.Decimal {
	return decimal.NewFromFloat(c.Review.PriceRangePercent)
}

// CampaignLayout 活动提交表的默认布局
func (c *AppConfig) CampaignLayout() model.Layout {
	return model.Layout{
		HeaderRow:   c.Sheets.CampaignHeaderRow,
		RemarkStart: c.Sheets.RemarkStart,
		RemarkEnd:   c.Sheets.RemarkEnd,
	}
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Review.PriceRangePercent < 0 || c.Review.PriceRangePercent > 100 {
		return fmt.Errorf("review.price_range_percent must be within 0-100, got %v", c.Review.PriceRangePercent)
	}
	if c.Sheets.SKUHeaderRow < 1 || c.Sheets.ToolHeaderRow < 1 {
		return fmt.Errorf("sheets header rows must be >= 1")
	}
	if err := c.CampaignLayout().Validate(); err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	if c.Sheets.AuditColumn < 1 {
		return fmt.Errorf("sheets.audit_column must be >= 1, got %d", c.Sheets.AuditColumn)
	}
	return nil
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

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo 从指定路径加载配置并返回元信息。
// 文件不存在时使用默认配置；.env 与环境变量覆盖文件中的取值。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	// .env 不存在时忽略
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv(EnvPricePercent); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPricePercent, err)
		}
		config.Review.PriceRangePercent = p
	}
	return nil
}

// LoadConfig 从可执行文件同目录的 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(DefaultPath())
	return config, err
}

// SaveConfig 保存配置
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录的绝对路径：相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// DBPath SQLite 数据库文件路径
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "pricecheck.db")
}
