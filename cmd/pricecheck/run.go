package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/service/session"
	"pricecheck/internal/util"
)

type runOptions struct {
	catalog           string
	tool              string
	campaign          string
	edits             string
	out               string
	skuHeaderRow      int
	toolHeaderRow     int
	campaignHeaderRow int
}

func newRunCommand(root *rootOptions) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "一次性对账：读取三张表并输出最终活动价格表",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Server.DevMode)
			if err != nil {
				return err
			}
			defer logger.Sync()

			req, err := o.request()
			if err != nil {
				return err
			}
			edits, err := loadEdits(o.edits)
			if err != nil {
				return err
			}

			defaults := session.DefaultsFromConfig(cfg)
			res, err := session.RunBatch(req, defaults, edits)
			if err != nil {
				return err
			}
			logWarnings(logger, res.Result.Warnings)
			logWarnings(logger, res.Plan.Warnings)

			if err := os.WriteFile(o.out, res.Workbook, 0644); err != nil {
				return eris.Wrapf(err, "write %s", o.out)
			}
			printSummary(cmd.OutOrStdout(), res, defaults, o.out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.catalog, "catalog", "", "SKU 表 (xlsx/csv)")
	f.StringVar(&o.tool, "tool", "", "工具价格表 (xlsx/csv)")
	f.StringVar(&o.campaign, "campaign", "", "活动价格提交表 (xlsx)")
	f.StringVar(&o.edits, "edits", "", "人工修改 JSON 文件 (可选)")
	f.StringVar(&o.out, "out", export.FileName, "输出文件")
	f.IntVar(&o.skuHeaderRow, "sku-header-row", 0, "SKU 表表头行 (0 使用配置)")
	f.IntVar(&o.toolHeaderRow, "tool-header-row", 0, "工具价格表表头行 (0 使用配置)")
	f.IntVar(&o.campaignHeaderRow, "campaign-header-row", 0, "活动价格提交表表头行 (0 使用配置)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("tool")
	_ = cmd.MarkFlagRequired("campaign")
	return cmd
}

func (o *runOptions) request() (session.CreateRequest, error) {
	req := session.CreateRequest{}
	files := []struct {
		path string
		dst  *session.Upload
	}{
		{o.catalog, &req.Catalog},
		{o.tool, &req.Tool},
		{o.campaign, &req.Campaign},
	}
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return req, eris.Wrapf(err, "read %s", f.path)
		}
		*f.dst = session.Upload{Filename: filepath.Base(f.path), Data: data}
	}

	positive := func(v int) *int {
		if v > 0 {
			return &v
		}
		return nil
	}
	req.Params.CatalogHeaderRow = positive(o.skuHeaderRow)
	req.Params.ToolHeaderRow = positive(o.toolHeaderRow)
	req.Params.CampaignHeaderRow = positive(o.campaignHeaderRow)
	return req, nil
}

func loadEdits(path string) ([]model.HumanEdit, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var edits []model.HumanEdit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return edits, nil
}

func logWarnings(logger *zap.Logger, warnings []model.Warning) {
	for _, w := range warnings {
		logger.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.String("table", w.Table), zap.Int("row", w.RowNo))
	}
}

func printSummary(w io.Writer, res *session.BatchResult, d session.Defaults, out string) {
	stats := res.Result.Stats
	fmt.Fprintf(w, "活动行: %d\n", stats.Total)
	for _, src := range model.AllSources() {
		if n := stats.BySource[src]; n > 0 {
			fmt.Fprintf(w, "  %s: %d (%s)\n", export.SourceLabel(src), n, util.FormatPercentOf(n, stats.Total))
		}
	}
	fmt.Fprintf(w, "需人工审核: %d\n", stats.NeedsReview)
	if stats.OutOfBand > 0 {
		fmt.Fprintf(w, "有%d行价格超出允许浮动范围(%s)，请注意核查！\n", stats.OutOfBand, util.FormatBand(d.Percent))
	}
	fmt.Fprintf(w, "已写回: %d 行，未匹配: %d 行\n", res.Plan.Matched, res.Plan.Unmatched)
	fmt.Fprintf(w, "输出文件: %s\n", out)
}
