// Package analyzer 在已构建完成的 Module 图上运行纯函数分析：
// 关系邻接视图、继承链与质量规则。任何 Model 都不会被改写。
package analyzer

import (
	"sort"

	"github.com/CodMac/odoo-lens/model"
)

// Edges 从 Models+Fields 推导全部关系边 (继承 + 关系字段)。
// 边永远重算，不持久化，Model/Field 图是唯一事实来源。
func Edges(module *model.Module) []model.RelationEdge {
	var edges []model.RelationEdge

	for _, name := range module.ModelNames() {
		m := module.Models[name]

		for _, base := range m.Inherit {
			state := model.RelationExternal
			if module.Models[base] != nil {
				state = model.RelationResolved
			}
			edges = append(edges, model.RelationEdge{
				Source: name, Target: base, Kind: model.Inherits, State: state,
			})
		}

		fieldNames := make([]string, 0, len(m.Fields))
		for fieldName := range m.Fields {
			fieldNames = append(fieldNames, fieldName)
		}
		sort.Strings(fieldNames)

		for _, fieldName := range fieldNames {
			field := m.Fields[fieldName]
			kind, ok := model.RelationKindOf(field.Kind)
			if !ok {
				continue
			}
			edges = append(edges, model.RelationEdge{
				Source: name,
				Target: field.Relation,
				Kind:   kind,
				Field:  fieldName,
				State:  field.RelationState,
			})
		}
	}
	return edges
}

// Outgoing 返回某模型的出边
func Outgoing(module *model.Module, name string) []model.RelationEdge {
	var result []model.RelationEdge
	for _, edge := range Edges(module) {
		if edge.Source == name {
			result = append(result, edge)
		}
	}
	return result
}

// Incoming 返回某模型的入边
func Incoming(module *model.Module, name string) []model.RelationEdge {
	var result []model.RelationEdge
	for _, edge := range Edges(module) {
		if edge.Target == name {
			result = append(result, edge)
		}
	}
	return result
}

// InheritanceChain 返回从最终基模型到该模型自身的有序继承链 (沿主继承路径)。
// cycle 为 true 时链不完整，调用方应上报 InheritanceCycleDetected 而不是死循环。
func InheritanceChain(module *model.Module, name string) (chain []string, cycle bool) {
	visited := map[string]bool{name: true}
	chain = []string{name}

	current := name
	for {
		m, ok := module.Models[current]
		if !ok || len(m.Inherit) == 0 {
			return chain, false
		}
		base := m.Inherit[0]
		if visited[base] {
			return chain, true
		}
		visited[base] = true
		chain = append([]string{base}, chain...)
		current = base
	}
}
