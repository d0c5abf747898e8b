package analyzer

import (
	"fmt"
	"sort"

	"github.com/CodMac/odoo-lens/model"
)

// complexityThreshold 圈复杂度超过该值的方法产出 complex-method 提示
const complexityThreshold = 10

// Quality 在完成构建的图上运行全部质量规则。
// 结构性问题 (悬空关系、继承环、缺失安全规则) 是分析的产物，永远上报。
func Quality(module *model.Module) []model.Finding {
	var findings []model.Finding

	for _, name := range module.ModelNames() {
		m := module.Models[name]
		findings = append(findings, checkModel(module, m)...)
	}

	findings = append(findings, checkInheritanceCycles(module)...)
	findings = append(findings, surfaceParseIssues(module)...)
	return findings
}

// ==========================================
// 1. 模型级规则 (Per-model Rules)
// ==========================================

func checkModel(module *model.Module, m *model.Model) []model.Finding {
	var findings []model.Finding

	// 纯扩展片段 (本模块未声明 _name) 不按完整模型问责
	if m.Declared && !m.NameUnresolved {
		if m.Description == "" {
			findings = append(findings, model.Finding{
				Rule: model.MissingDescription, Severity: model.SeverityWarning,
				Model:   m.Name,
				Message: fmt.Sprintf("model %s has no _description", m.Name),
			})
		}
		if len(m.Rules) == 0 {
			findings = append(findings, model.Finding{
				Rule: model.MissingSecurity, Severity: model.SeverityWarning,
				Model:   m.Name,
				Message: fmt.Sprintf("model %s has no access rules defined", m.Name),
			})
		}
	}

	fieldNames := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	for _, fieldName := range fieldNames {
		findings = append(findings, checkField(module, m, m.Fields[fieldName])...)
	}

	methodNames := make([]string, 0, len(m.Methods))
	for name := range m.Methods {
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)

	for _, methodName := range methodNames {
		method := m.Methods[methodName]
		if method.Complexity > complexityThreshold {
			findings = append(findings, model.Finding{
				Rule: model.ComplexMethod, Severity: model.SeverityInfo,
				Model: m.Name, Method: method.Name,
				Message: fmt.Sprintf("method %s.%s has cyclomatic complexity %d (threshold %d)",
					m.Name, method.Name, method.Complexity, complexityThreshold),
			})
		}
	}
	return findings
}

// ==========================================
// 2. 字段级规则 (Per-field Rules)
// ==========================================

func checkField(module *model.Module, m *model.Model, field *model.Field) []model.Finding {
	var findings []model.Finding

	// 非存储计算字段：每次访问都会重算，典型性能隐患
	if field.Computed && !field.Stored {
		findings = append(findings, model.Finding{
			Rule: model.PerformanceRisk, Severity: model.SeverityWarning,
			Model: m.Name, Field: field.Name,
			Message: fmt.Sprintf("non-stored computed field %s.%s may impact performance", m.Name, field.Name),
		})
	}

	if field.Category != model.CategoryRelational {
		return findings
	}

	// 悬空关系目标：保留为悬空边并恰好产出一条 finding
	if field.RelationState == model.RelationDangling {
		findings = append(findings, model.Finding{
			Rule: model.DanglingRelation, Severity: model.SeverityWarning,
			Model: m.Name, Field: field.Name,
			Message: fmt.Sprintf("field %s.%s references model %q which was never declared",
				m.Name, field.Name, field.Relation),
		})
	}

	// One2many 的反向字段必须是目标模型上指回来的 Many2one。
	// 目标在模块外 (external) 时无从校验，不产出问题。
	if field.Kind == model.FieldOne2many && field.RelationState == model.RelationResolved {
		if !hasInverseField(module, m.Name, field) {
			findings = append(findings, model.Finding{
				Rule: model.OrphanOne2many, Severity: model.SeverityWarning,
				Model: m.Name, Field: field.Name,
				Message: fmt.Sprintf("one2many field %s.%s has no matching many2one %q on %s",
					m.Name, field.Name, field.InverseName, field.Relation),
			})
		}
	}
	return findings
}

// hasInverseField 校验 inverse_name 解析到目标模型上指回源模型的 Many2one
func hasInverseField(module *model.Module, sourceModel string, field *model.Field) bool {
	target, ok := module.Models[field.Relation]
	if !ok {
		return false
	}
	if field.InverseName == "" {
		// 没有声明 inverse_name 时退化为: 目标上存在任意指回来的 Many2one
		for _, candidate := range target.Fields {
			if candidate.Kind == model.FieldMany2one && candidate.Relation == sourceModel {
				return true
			}
		}
		return false
	}
	inverse, ok := target.Fields[field.InverseName]
	if !ok || inverse.Kind != model.FieldMany2one {
		return false
	}
	// 反向字段不带 comodel 时 (unknown/部分解析) 不再追究
	return inverse.Relation == "" || inverse.Relation == sourceModel
}

// ==========================================
// 3. 继承环与解析降级 (Cycles & Degradations)
// ==========================================

func checkInheritanceCycles(module *model.Module) []model.Finding {
	var findings []model.Finding
	for _, name := range module.ModelNames() {
		if _, cycle := InheritanceChain(module, name); cycle {
			findings = append(findings, model.Finding{
				Rule: model.InheritanceCycle, Severity: model.SeverityError,
				Model:   name,
				Message: fmt.Sprintf("InheritanceCycleDetected: inheritance chain of %s never reaches a base model", name),
			})
		}
	}
	return findings
}

// surfaceParseIssues 把文件级解析降级以 finding 形式带进报告，
// 用户据此判断分析结果的完整性。
func surfaceParseIssues(module *model.Module) []model.Finding {
	var findings []model.Finding
	for _, issue := range module.Issues {
		severity := model.SeverityWarning
		if issue.Partial {
			severity = model.SeverityInfo
		}
		findings = append(findings, model.Finding{
			Rule: model.ParseDegraded, Severity: severity,
			File:    issue.File,
			Message: fmt.Sprintf("%s: %s", issue.Stage, issue.Detail),
		})
	}
	return findings
}
