// Package xmldata 提取 XML 声明文件中的视图字段引用、记录规则与菜单项，
// 以及 CSV 访问清单中的权限行。
package xmldata

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ==========================================
// 1. XML 声明文件 (Views / Rules / Menus)
// ==========================================

// CollectFile 读取并提取一个 XML 文件。读取失败返回错误；
// 格式错误的 XML 降级为该文件的 ParseIssue，不阻塞其余文件。
func (e *Extractor) CollectFile(path, relPath string) (*graph.FileRecords, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.Collect(source, relPath), nil
}

func (e *Extractor) Collect(source []byte, relPath string) *graph.FileRecords {
	records := &graph.FileRecords{Path: relPath}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(source); err != nil {
		records.Issues = append(records.Issues, model.ParseIssue{
			File: relPath, Stage: model.StageXML,
			Detail: fmt.Sprintf("malformed xml: %v", err),
		})
		return records
	}

	for _, record := range doc.FindElements("//record") {
		switch record.SelectAttrValue("model", "") {
		case "ir.ui.view":
			e.collectViewUsages(record, relPath, records)
		case "ir.rule":
			e.collectRecordRule(record, relPath, records)
		}
	}

	for _, menuitem := range doc.FindElements("//menuitem") {
		records.Menus = append(records.Menus, e.collectMenuItem(menuitem))
	}
	return records
}

// collectViewUsages 从 ir.ui.view 记录的 arch 中提取 (模型, 字段, 视图类型) 引用
func (e *Extractor) collectViewUsages(record *etree.Element, relPath string, records *graph.FileRecords) {
	viewID := record.SelectAttrValue("id", "")

	modelName := ""
	viewType := ""
	var arch *etree.Element
	for _, field := range record.SelectElements("field") {
		switch field.SelectAttrValue("name", "") {
		case "model":
			modelName = strings.TrimSpace(field.Text())
		case "type":
			viewType = strings.TrimSpace(field.Text())
		case "arch":
			arch = field
		}
	}
	if modelName == "" || arch == nil {
		return
	}
	if viewType == "" {
		viewType = inferViewType(arch)
	}

	for _, field := range arch.FindElements(".//field") {
		name := field.SelectAttrValue("name", "")
		if name == "" {
			continue
		}
		records.Views = append(records.Views, model.ViewUsage{
			ViewID:     viewID,
			Model:      modelName,
			Field:      name,
			ViewType:   viewType,
			SourceFile: relPath,
		})
	}
}

// inferViewType 没有显式 type 字段时，用 arch 根元素的标签名推断视图类型
func inferViewType(arch *etree.Element) string {
	for _, child := range arch.ChildElements() {
		switch child.Tag {
		case "form", "tree", "list", "kanban", "search", "calendar", "graph", "pivot", "gantt":
			return child.Tag
		}
	}
	return "unknown"
}

var refPattern = regexp.MustCompile(`ref\('([^']+)'\)`)

// collectRecordRule 提取 ir.rule 记录为安全规则
func (e *Extractor) collectRecordRule(record *etree.Element, relPath string, records *graph.FileRecords) {
	rule := &model.SecurityRule{
		Name:   record.SelectAttrValue("id", ""),
		Origin: model.OriginRecordRule,
		// 记录规则不携带权限位时按全权限处理 (与访问清单行互补)
		PermRead: true, PermWrite: true, PermCreate: true, PermUnlink: true,
		SourceFile: relPath,
	}

	var groups []string
	for _, field := range record.SelectElements("field") {
		switch field.SelectAttrValue("name", "") {
		case "model_id":
			if ref := field.SelectAttrValue("ref", ""); ref != "" {
				rule.Model = strings.TrimPrefix(ref, "model_")
			}
		case "domain_force":
			rule.DomainForce = strings.TrimSpace(field.Text())
		case "groups":
			// 两种常见形态: eval="[(4, ref('...'))]" 或嵌套 <field ref="..."/>
			if eval := field.SelectAttrValue("eval", ""); eval != "" {
				for _, m := range refPattern.FindAllStringSubmatch(eval, -1) {
					groups = append(groups, m[1])
				}
			}
			for _, nested := range field.FindElements(".//field") {
				if ref := nested.SelectAttrValue("ref", ""); ref != "" {
					groups = append(groups, ref)
				}
			}
		case "perm_read":
			rule.PermRead = evalBool(field, true)
		case "perm_write":
			rule.PermWrite = evalBool(field, true)
		case "perm_create":
			rule.PermCreate = evalBool(field, true)
		case "perm_unlink":
			rule.PermUnlink = evalBool(field, true)
		}
	}

	if rule.Model == "" {
		return
	}
	if len(groups) == 0 {
		records.Rules = append(records.Rules, rule)
		return
	}
	// 每个组一条规则，保持 (模型, 组, 权限位) 的数据形状统一
	for _, group := range groups {
		withGroup := *rule
		withGroup.Group = group
		records.Rules = append(records.Rules, &withGroup)
	}
}

func evalBool(field *etree.Element, fallback bool) bool {
	text := field.SelectAttrValue("eval", "")
	if text == "" {
		text = strings.TrimSpace(field.Text())
	}
	switch strings.ToLower(text) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	return fallback
}

func (e *Extractor) collectMenuItem(menuitem *etree.Element) model.MenuItem {
	item := model.MenuItem{
		ID:       menuitem.SelectAttrValue("id", ""),
		Name:     menuitem.SelectAttrValue("name", ""),
		Parent:   menuitem.SelectAttrValue("parent", ""),
		Action:   menuitem.SelectAttrValue("action", ""),
		Sequence: 10,
	}
	if seq := menuitem.SelectAttrValue("sequence", ""); seq != "" {
		if n, err := strconv.Atoi(seq); err == nil {
			item.Sequence = n
		}
	}
	if groups := menuitem.SelectAttrValue("groups", ""); groups != "" {
		item.Groups = strings.Split(groups, ",")
	}
	return item
}
