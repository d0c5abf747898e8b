// Package report 是核心到展示层的只读门面。
// 所有查询都是已建图的纯投影，不触发任何重新解析；
// 返回纯结构化数据，不泄漏任何 UI 专用类型。
package report

import (
	"sort"

	"github.com/CodMac/odoo-lens/analyzer"
	"github.com/CodMac/odoo-lens/model"
)

// Report 持有一次分析会话的成品图与分析结果，进程退出或下次分析时整体丢弃
type Report struct {
	module   *model.Module
	findings []model.Finding
	edges    []model.RelationEdge
}

func New(module *model.Module) *Report {
	return &Report{
		module:   module,
		findings: analyzer.Quality(module),
		edges:    analyzer.Edges(module),
	}
}

func (r *Report) Module() *model.Module     { return r.module }
func (r *Report) Findings() []model.Finding { return r.findings }

// ==========================================
// 1. 树形视图 (Tree Projections)
// ==========================================

// FieldGroup 是模型节点下按类别分组的字段列表
type FieldGroup struct {
	Category model.FieldCategory `json:"Category"`
	Fields   []*model.Field      `json:"Fields"`
}

// ModelNode 是 {模型 -> 字段分组 -> 方法} 树的一个节点
type ModelNode struct {
	Name        string          `json:"Name"`
	Description string          `json:"Description,omitempty"`
	Kind        model.ModelKind `json:"Kind"`
	Inherit     []string        `json:"Inherit,omitempty"`
	FieldGroups []FieldGroup    `json:"FieldGroups,omitempty"`
	Methods     []*model.Method `json:"Methods,omitempty"`
}

// ModelTree 返回模型树：模型 -> 按类别分组的字段 -> 方法，全部有序
func (r *Report) ModelTree() []ModelNode {
	var nodes []ModelNode
	for _, name := range r.module.ModelNames() {
		m := r.module.Models[name]
		nodes = append(nodes, ModelNode{
			Name:        m.Name,
			Description: m.Description,
			Kind:        m.Kind,
			Inherit:     m.Inherit,
			FieldGroups: groupFields(m),
			Methods:     sortedMethods(m),
		})
	}
	return nodes
}

func groupFields(m *model.Model) []FieldGroup {
	byCategory := make(map[model.FieldCategory][]*model.Field)
	for _, field := range m.Fields {
		category := field.Category
		// 计算字段单独成组，优先于构造器分类
		if field.Computed {
			category = model.CategoryComputed
		}
		byCategory[category] = append(byCategory[category], field)
	}

	var groups []FieldGroup
	for _, category := range []model.FieldCategory{model.CategoryBasic, model.CategoryRelational, model.CategoryComputed, model.CategoryUnknown} {
		fields, ok := byCategory[category]
		if !ok {
			continue
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		groups = append(groups, FieldGroup{Category: category, Fields: fields})
	}
	return groups
}

func sortedMethods(m *model.Model) []*model.Method {
	methods := make([]*model.Method, 0, len(m.Methods))
	for _, method := range m.Methods {
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	return methods
}

// SecurityNode 是按模型分组的安全规则树节点
type SecurityNode struct {
	Model string                `json:"Model"`
	Rules []*model.SecurityRule `json:"Rules"`
}

// SecurityTree 返回 {模型 -> 安全规则} 树；挂不到模型的规则归入 "" 节点
func (r *Report) SecurityTree() []SecurityNode {
	byModel := make(map[string][]*model.SecurityRule)
	for _, rule := range r.module.Rules {
		key := ""
		if _, ok := r.module.Models[rule.Model]; ok {
			key = rule.Model
		}
		byModel[key] = append(byModel[key], rule)
	}

	keys := make([]string, 0, len(byModel))
	for key := range byModel {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var nodes []SecurityNode
	for _, key := range keys {
		nodes = append(nodes, SecurityNode{Model: key, Rules: byModel[key]})
	}
	return nodes
}

// ==========================================
// 2. 明细与关系查询 (Detail & Edge Queries)
// ==========================================

// ModelDetail 按技术名查询完整模型
func (r *Report) ModelDetail(name string) (*model.Model, bool) {
	m, ok := r.module.Models[name]
	return m, ok
}

// Edges 返回关系边列表；kind 为空串时不过滤
func (r *Report) Edges(kind model.RelationKind) []model.RelationEdge {
	if kind == "" {
		return r.edges
	}
	var result []model.RelationEdge
	for _, edge := range r.edges {
		if edge.Kind == kind {
			result = append(result, edge)
		}
	}
	return result
}

// InheritanceChain 返回某模型的继承链 (最终基模型在前)
func (r *Report) InheritanceChain(name string) ([]string, bool) {
	return analyzer.InheritanceChain(r.module, name)
}

// ==========================================
// 3. 聚合统计 (Aggregate Statistics)
// ==========================================

// SecurityCoverage 是安全规则覆盖度统计
type SecurityCoverage struct {
	ModelsWithRules int      `json:"ModelsWithRules"`
	Percentage      float64  `json:"Percentage"`
	MissingModels   []string `json:"MissingModels,omitempty"`
}

// Stats 是模块的聚合统计快照
type Stats struct {
	TotalModels        int                     `json:"TotalModels"`
	TotalFields        int                     `json:"TotalFields"`
	TotalMethods       int                     `json:"TotalMethods"`
	FieldKinds         map[model.FieldKind]int `json:"FieldKinds"`
	ViewsByType        map[string]int          `json:"ViewsByType,omitempty"`
	FindingsBySeverity map[model.Severity]int  `json:"FindingsBySeverity"`
	ModelsInheriting   int                     `json:"ModelsInheriting"`
	Security           SecurityCoverage        `json:"Security"`
}

func (r *Report) Stats() Stats {
	stats := Stats{
		TotalModels:        len(r.module.Models),
		FieldKinds:         make(map[model.FieldKind]int),
		ViewsByType:        make(map[string]int),
		FindingsBySeverity: make(map[model.Severity]int),
	}

	withRules := 0
	for _, name := range r.module.ModelNames() {
		m := r.module.Models[name]
		stats.TotalFields += len(m.Fields)
		stats.TotalMethods += len(m.Methods)
		for _, field := range m.Fields {
			stats.FieldKinds[field.Kind]++
		}
		if len(m.Inherit) > 0 {
			stats.ModelsInheriting++
		}
		if !m.Declared {
			continue
		}
		if len(m.Rules) > 0 {
			withRules++
		} else {
			stats.Security.MissingModels = append(stats.Security.MissingModels, name)
		}
	}

	declared := withRules + len(stats.Security.MissingModels)
	stats.Security.ModelsWithRules = withRules
	if declared > 0 {
		stats.Security.Percentage = float64(withRules) / float64(declared) * 100
	}

	seenViews := make(map[string]bool)
	for _, usage := range r.module.Views {
		key := usage.ViewID + "|" + usage.ViewType
		if !seenViews[key] {
			seenViews[key] = true
			stats.ViewsByType[usage.ViewType]++
		}
	}

	for _, finding := range r.findings {
		stats.FindingsBySeverity[finding.Severity]++
	}
	return stats
}
