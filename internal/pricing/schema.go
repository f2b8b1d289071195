package pricing

import (
	"errors"
	"fmt"

	"pricecheck/internal/model"
	"pricecheck/internal/parser"
)

// Inputs 三张解码后的输入表
type Inputs struct {
	Catalog  *model.Table
	Tool     *model.Table
	Campaign *model.Table
}

// ValidateColumns 校验单张表的必需列
func ValidateColumns(t *model.Table, required []string, tableName string) error {
	if t == nil {
		return fmt.Errorf("%s: %w", tableName, ErrTableMissing)
	}
	missing := parser.NewFieldMapper(t.Header).Missing(required)
	if len(missing) > 0 {
		return &SchemaError{Table: tableName, Missing: missing}
	}
	return nil
}

// ValidateInputs 同时校验三张表，所有缺列问题一并返回
func ValidateInputs(in Inputs, f model.Fields) error {
	return errors.Join(
		ValidateColumns(in.Catalog, f.CatalogRequired(), model.TableCatalog),
		ValidateColumns(in.Tool, f.ToolRequired(), model.TableTool),
		ValidateColumns(in.Campaign, f.CampaignRequired(), model.TableCampaign),
	)
}
