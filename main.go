package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/output"
	"github.com/CodMac/odoo-lens/processor"
	"github.com/CodMac/odoo-lens/report"
	"github.com/CodMac/odoo-lens/scanner"
)

const (
	MaxMermaidNodes = 200
	MaxMermaidEdges = 400
)

type Config struct {
	ModulePath string
	Jobs       int
	OutDir     string
	Format     string
	External   string // 对应 graph.Policy
}

func main() {
	cfg := parseFlags()
	startTime := time.Now()

	// 1. 扫描并分析模块
	fmt.Fprintf(os.Stderr, "[1/3] 🔍 正在分析 Odoo 模块: %s\n", cfg.ModulePath)
	pipe := processor.NewPipeline(cfg.Jobs, graph.Policy(cfg.External))

	rep, scan, err := pipe.Run(cfg.ModulePath)
	if err != nil {
		if errors.Is(err, scanner.ErrNotAnOdooModule) {
			exitWithError("不是有效的 Odoo 模块 (缺少 __manifest__.py)", err)
		}
		exitWithError("分析执行失败", err)
	}
	module := rep.Module()
	fmt.Fprintf(os.Stderr, "    模型=%d, 安全规则=%d, 视图引用=%d, 未识别文件=%d\n",
		len(module.Models), len(module.Rules), len(module.Views), len(scan.Unrecognized))

	// 2. 报告解析降级情况，供用户评估结果完整性
	fmt.Fprintf(os.Stderr, "[2/3] ⚙️  质量分析: %d 个 finding\n", len(rep.Findings()))
	for _, issue := range module.Issues {
		fmt.Fprintf(os.Stderr, "    ⚠️  %s: %s\n", issue.File, issue.Detail)
	}

	// 3. 导出
	fmt.Fprintf(os.Stderr, "[3/3] 💾 正在写入结果 (format=%s)...\n", cfg.Format)
	if err := runExport(cfg, rep); err != nil {
		exitWithError("导出失败", err)
	}

	fmt.Fprintf(os.Stderr, "✨ 分析结束! 总耗时: %v\n", time.Since(startTime).Round(time.Millisecond))
}

func parseFlags() Config {
	c := Config{}
	flag.StringVar(&c.ModulePath, "path", ".", "Odoo 模块根目录")
	flag.IntVar(&c.Jobs, "jobs", 4, "并发数")
	flag.StringVar(&c.OutDir, "out-dir", "./output", "输出目录")
	flag.StringVar(&c.Format, "format", "json", "格式: json, jsonl, mermaid, summary")
	flag.StringVar(&c.External, "external", "assumed", "模块外关系目标策略: assumed, dangling")
	flag.Parse()
	return c
}

func runExport(cfg Config, rep *report.Report) error {
	if cfg.Format == "summary" {
		return printSummary(rep)
	}

	_ = os.MkdirAll(cfg.OutDir, 0755)
	exporter := output.NewExporter(cfg.OutDir)

	format := output.OutType(cfg.Format)
	if format == output.Mermaid {
		module := rep.Module()
		if len(module.Models) > MaxMermaidNodes || len(rep.Edges("")) > MaxMermaidEdges {
			fmt.Fprintf(os.Stderr, "    ⚠️  规模过大(%d 模型)，Mermaid 渲染可能失败，自动降级为 json\n", len(module.Models))
			format = output.JsonDoc
		}
	}

	switch format {
	case output.Mermaid:
		nodes, edges, err := exporter.ExportMermaidHTML(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    ✅ 完成: 节点=%d, 边=%d\n", nodes, edges)
	case output.JsonL:
		models, edges, err := exporter.ExportJsonL(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    ✅ 完成: 模型=%d, 关系=%d\n", models, edges)
	case output.JsonDoc:
		path, err := exporter.ExportDocument(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    ✅ 完成: %s\n", path)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}

// printSummary 把聚合统计打到 stdout (交互式报告会话的最小形态)
func printSummary(rep *report.Report) error {
	stats := rep.Stats()
	module := rep.Module()

	fmt.Printf("Module: %s (%s)\n", module.Manifest.Name, module.Manifest.Version)
	fmt.Printf("Models: %d  Fields: %d  Methods: %d\n", stats.TotalModels, stats.TotalFields, stats.TotalMethods)
	fmt.Printf("Security coverage: %.1f%% (%d models missing rules)\n",
		stats.Security.Percentage, len(stats.Security.MissingModels))

	for _, node := range rep.ModelTree() {
		fmt.Printf("\n%s  %q\n", node.Name, node.Description)
		for _, group := range node.FieldGroups {
			fmt.Printf("  [%s]\n", group.Category)
			for _, field := range group.Fields {
				fmt.Printf("    %-24s %s\n", field.Name, field.Kind)
			}
		}
	}

	if len(rep.Findings()) > 0 {
		fmt.Println("\nFindings:")
		for _, finding := range rep.Findings() {
			fmt.Printf("  [%s] %s: %s\n", finding.Severity, finding.Rule, finding.Message)
		}
	}
	return nil
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
