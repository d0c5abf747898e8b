package xmldata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
)

// ==========================================
// 2. CSV 访问清单 (ir.model.access.csv)
// ==========================================

// CollectAccessFile 解析访问清单 CSV。每行产出一条 (模型, 组, CRUD 权限位) 规则。
func (e *Extractor) CollectAccessFile(path, relPath string) (*graph.FileRecords, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.CollectAccess(source, relPath), nil
}

func (e *Extractor) CollectAccess(source []byte, relPath string) *graph.FileRecords {
	records := &graph.FileRecords{Path: relPath}

	reader := csv.NewReader(bytes.NewReader(source))
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		records.Issues = append(records.Issues, model.ParseIssue{
			File: relPath, Stage: model.StageCSV,
			Detail: fmt.Sprintf("malformed csv: %v", err),
		})
		return records
	}
	if len(rows) < 2 {
		return records
	}

	header := indexHeader(rows[0])
	if _, ok := header["model_id"]; !ok {
		// 不是访问清单形态的 CSV (普通数据文件)，记录降级标记后跳过
		records.Issues = append(records.Issues, model.ParseIssue{
			File: relPath, Stage: model.StageCSV,
			Detail: "csv has no model_id column, not an access list", Partial: true,
		})
		return records
	}

	for _, row := range rows[1:] {
		cell := func(column string) string {
			idx, ok := header[column]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		modelRef := strings.TrimPrefix(cell("model_id"), "model_")
		if modelRef == "" {
			continue
		}
		records.Rules = append(records.Rules, &model.SecurityRule{
			Name:       cell("id"),
			Model:      modelRef,
			Group:      cell("group_id"),
			PermRead:   permBit(cell("perm_read")),
			PermWrite:  permBit(cell("perm_write")),
			PermCreate: permBit(cell("perm_create")),
			PermUnlink: permBit(cell("perm_unlink")),
			Origin:     model.OriginAccessCSV,
			SourceFile: relPath,
		})
	}
	return records
}

// indexHeader 建列名索引；"model_id:id" 这种外部标识列按冒号前缀归一
func indexHeader(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		if cut := strings.IndexByte(name, ':'); cut > 0 {
			name = name[:cut]
		}
		header[name] = i
	}
	return header
}

func permBit(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true":
		return true
	}
	return false
}
