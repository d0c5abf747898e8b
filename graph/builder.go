package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CodMac/odoo-lens/model"
)

// Policy 决定指向模块外模型的关系目标如何处理 (设计开放问题的落地配置)
type Policy string

const (
	// PolicyAssumed 模块外目标视为框架模型，标记 external，不产生 dangling 问题
	PolicyAssumed Policy = "assumed"
	// PolicyDangling 一切未在本模块声明的目标都算 dangling
	PolicyDangling Policy = "dangling"
)

// Builder 把全部不可变文件记录一次性合并为 Module 图。
// 两阶段协议：采集阶段产出记录，这里按路径排序后单线程合并，
// 输出与扫描/并发顺序无关。
type Builder struct {
	Policy Policy
}

func NewBuilder(policy Policy) *Builder {
	if policy == "" {
		policy = PolicyAssumed
	}
	return &Builder{Policy: policy}
}

func (b *Builder) Build(root string, manifest model.Manifest, records []*FileRecords) *model.Module {
	module := &model.Module{
		Path:     root,
		Manifest: manifest,
		Models:   make(map[string]*model.Model),
	}

	sorted := make([]*FileRecords, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	// --- 阶段 1: 合并模型片段 ---
	for _, fr := range sorted {
		for _, partial := range fr.Partials {
			b.mergePartial(module, partial)
		}
	}

	// --- 阶段 2: 挂接安全规则 / 视图引用 / 菜单 / 解析问题 ---
	for _, fr := range sorted {
		for _, rule := range fr.Rules {
			b.attachRule(module, rule)
		}
		for _, usage := range fr.Views {
			b.attachViewUsage(module, usage)
		}
		module.Menus = append(module.Menus, fr.Menus...)
		module.Issues = append(module.Issues, fr.Issues...)
	}

	// --- 阶段 3: 解析关系目标状态 ---
	b.resolveRelationTargets(module)

	return module
}

// ==========================================
// 1. 模型片段合并 (Partial Merge)
// ==========================================

// mergePartial 把一个源文件片段并入逻辑模型。
// 同名片段合并规则：字段/方法取并集 (路径序在先者保留)，标量取先到的非空值。
func (b *Builder) mergePartial(module *model.Module, partial *PartialModel) {
	name := partial.Name
	if name == "" && len(partial.Inherit) > 0 {
		// 纯 _inherit 扩展片段：字段/方法累积到被扩展的模型上
		name = partial.Inherit[0]
	}
	if name == "" {
		// _name 不可静态解析：保留显式 unresolved 模型，分析对输入保持全覆盖
		name = fmt.Sprintf("<unresolved>@%s", partial.File)
	}

	m, ok := module.Models[name]
	if !ok {
		m = model.NewModel(name)
		m.Kind = partial.Kind
		module.Models[name] = m
	}

	if partial.NameUnresolved {
		m.NameUnresolved = true
	}
	if partial.InheritUnresolved {
		m.InheritUnresolved = true
	}
	if m.Description == "" {
		m.Description = partial.Description
	}
	if m.Order == "" {
		m.Order = partial.Order
	}
	if m.RecName == "" {
		m.RecName = partial.RecName
	}
	m.SQLConstraints = append(m.SQLConstraints, partial.SQLConstraints...)

	// 新 _name + _inherit 基模型 => 派生模型；继承列表去重累积
	if partial.Name != "" {
		m.Declared = true
		for _, base := range partial.Inherit {
			if base != name && !containsString(m.Inherit, base) {
				m.Inherit = append(m.Inherit, base)
			}
		}
	}

	for _, field := range partial.Fields {
		if _, exists := m.Fields[field.Name]; !exists {
			m.Fields[field.Name] = field
		}
	}
	for _, method := range partial.Methods {
		if _, exists := m.Methods[method.Name]; !exists {
			m.Methods[method.Name] = method
		}
	}
	if !containsString(m.SourceFiles, partial.File) {
		m.SourceFiles = append(m.SourceFiles, partial.File)
	}
}

// ==========================================
// 2. 规则与视图挂接 (Attachment)
// ==========================================

// attachRule 把安全规则挂到它引用的模型上。
// CSV/XML 里的模型引用是下划线形态 (model_res_partner_custom)，
// 与技术名的点号形态按归一化索引匹配；匹配不到的规则保留在模块级列表里。
func (b *Builder) attachRule(module *model.Module, rule *model.SecurityRule) {
	module.Rules = append(module.Rules, rule)

	if m, ok := module.Models[rule.Model]; ok {
		m.Rules = append(m.Rules, rule)
		return
	}
	// 按有序名单回退匹配，归一化撞车时挂接结果稳定
	for _, name := range module.ModelNames() {
		if strings.ReplaceAll(name, ".", "_") == rule.Model {
			rule.Model = name
			module.Models[name].Rules = append(module.Models[name].Rules, rule)
			return
		}
	}
}

func (b *Builder) attachViewUsage(module *model.Module, usage model.ViewUsage) {
	module.Views = append(module.Views, usage)

	m, ok := module.Models[usage.Model]
	if !ok {
		return
	}
	field, ok := m.Fields[usage.Field]
	if !ok {
		return
	}
	if !containsString(field.UsedInViews, usage.ViewType) {
		field.UsedInViews = append(field.UsedInViews, usage.ViewType)
	}
}

// ==========================================
// 3. 关系目标解析 (Relation Resolution)
// ==========================================

// resolveRelationTargets 给关系字段回填目标解析状态。
// 无法解析的目标按策略标记 external 或 dangling，保留为悬空边而不是丢弃。
func (b *Builder) resolveRelationTargets(module *model.Module) {
	external := make(map[string]bool)

	for _, m := range module.Models {
		for _, field := range m.Fields {
			if field.Category != model.CategoryRelational {
				continue
			}
			switch {
			case field.Relation == "":
				field.RelationState = model.RelationDangling
			case module.Models[field.Relation] != nil:
				field.RelationState = model.RelationResolved
			case b.Policy == PolicyAssumed:
				field.RelationState = model.RelationExternal
				external[field.Relation] = true
			default:
				field.RelationState = model.RelationDangling
			}
		}
	}

	for name := range external {
		module.ExternalModels = append(module.ExternalModels, name)
	}
	sort.Strings(module.ExternalModels)
}

func containsString(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
