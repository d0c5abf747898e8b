package model

import "sort"

// Manifest 是模块清单 (__manifest__.py) 的声明性元数据
type Manifest struct {
	Name    string            `json:"Name"`
	Version string            `json:"Version,omitempty"`
	Depends []string          `json:"Depends,omitempty"`
	Extra   map[string]string `json:"Extra,omitempty"` // 其他标量键 (summary, category, ...)
}

// ParseStage 标识解析问题发生的阶段
type ParseStage string

const (
	StagePython   ParseStage = "python"
	StageXML      ParseStage = "xml"
	StageCSV      ParseStage = "csv"
	StageManifest ParseStage = "manifest"
)

// ParseIssue 记录单个文件的解析失败或部分解析。
// 降级错误被捕获为数据挂在 Module 上，而不是向上抛出中断整次分析。
type ParseIssue struct {
	File    string     `json:"File"`
	Stage   ParseStage `json:"Stage"`
	Detail  string     `json:"Detail"`
	Partial bool       `json:"Partial"` // true 表示文件部分可用 (语法错误降级)
}

// Module 是一次分析的根实体，构建完成后不再变更。
// Module 独占所有 Model；关系/继承视图永远从 Models+Fields 重新推导，不做双份记账。
type Module struct {
	Path     string   `json:"Path"`
	Manifest Manifest `json:"Manifest"`

	Models map[string]*Model `json:"Models"`

	// Rules 保存模块内全部安全规则 (含未能挂到任何 Model 的)
	Rules []*SecurityRule `json:"Rules,omitempty"`

	Views []ViewUsage `json:"Views,omitempty"`
	Menus []MenuItem  `json:"Menus,omitempty"`

	// ExternalModels 是 assumed-valid 策略下见到的模块外关系目标
	ExternalModels []string `json:"ExternalModels,omitempty"`

	// Issues 列出哪些文件未解析或仅部分解析，供用户评估完整性
	Issues []ParseIssue `json:"Issues,omitempty"`
}

// ModelNames 返回有序的模型技术名列表
func (m *Module) ModelNames() []string {
	names := make([]string, 0, len(m.Models))
	for name := range m.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
