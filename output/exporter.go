package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/CodMac/odoo-lens/model"
	"github.com/CodMac/odoo-lens/report"
)

type OutType string

const (
	JsonDoc OutType = "json"
	JsonL   OutType = "jsonl"
	Mermaid OutType = "mermaid"
)

// Document 是完整模块图的交换文档：不依赖原始源码树即可回看全部分析结果。
// 序列化后再加载应还原出相同的 Model/Field/SecurityRule/Finding 集合 (RunID 除外)。
type Document struct {
	RunID       string               `json:"RunID"`
	GeneratedAt string               `json:"GeneratedAt"`
	Module      *model.Module        `json:"Module"`
	Findings    []model.Finding      `json:"Findings"`
	Edges       []model.RelationEdge `json:"Edges"`
	Stats       report.Stats         `json:"Stats"`
}

// NewDocument 从报告快照组装交换文档
func NewDocument(rep *report.Report) *Document {
	return &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Module:      rep.Module(),
		Findings:    rep.Findings(),
		Edges:       rep.Edges(""),
		Stats:       rep.Stats(),
	}
}

// LoadDocument 读回交换文档 (round-trip 校验/离线查看)
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return &doc, nil
}

type Exporter struct {
	outputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{outputDir: outputDir}
}

// ExportDocument 输出带缩进的完整交换文档 module.json
func (p *Exporter) ExportDocument(rep *report.Report) (string, error) {
	doc := NewDocument(rep)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(p.outputDir, "module.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ExportJsonL 输出 model.jsonl / relation.jsonl / finding.jsonl 三个逐行文件
func (p *Exporter) ExportJsonL(rep *report.Report) (int, int, error) {
	modelPath := filepath.Join(p.outputDir, "model.jsonl")
	relPath := filepath.Join(p.outputDir, "relation.jsonl")
	findingPath := filepath.Join(p.outputDir, "finding.jsonl")

	modelFile, err := os.Create(modelPath)
	if err != nil {
		return 0, 0, err
	}
	defer modelFile.Close()

	relFile, err := os.Create(relPath)
	if err != nil {
		return 0, 0, err
	}
	defer relFile.Close()

	findingFile, err := os.Create(findingPath)
	if err != nil {
		return 0, 0, err
	}
	defer findingFile.Close()

	module := rep.Module()
	modelWriter := NewJSONLWriter(modelFile)
	modelCount := 0
	for _, name := range module.ModelNames() {
		if err := modelWriter.Write(module.Models[name]); err != nil {
			return modelCount, 0, err
		}
		modelCount++
	}

	relWriter := NewJSONLWriter(relFile)
	relCount := 0
	for _, edge := range rep.Edges("") {
		if err := relWriter.Write(edge); err != nil {
			return modelCount, relCount, err
		}
		relCount++
	}

	findingWriter := NewJSONLWriter(findingFile)
	for _, finding := range rep.Findings() {
		if err := findingWriter.Write(finding); err != nil {
			return modelCount, relCount, err
		}
	}
	return modelCount, relCount, nil
}
