package graph

import "github.com/CodMac/odoo-lens/model"

// PartialModel 是单个源文件里提取出的模型片段。
// 同一 _name 可能由多个片段贡献 (继承扩展)，合并发生在 Build 阶段。
type PartialModel struct {
	File string // 相对路径，排序键

	Name              string // _name 字面量；仅 _inherit 扩展时为空
	NameUnresolved    bool   // _name 为非字面量表达式
	Inherit           []string
	InheritUnresolved bool // _inherit 含非字面量元素
	Kind              model.ModelKind
	Description       string
	Order             string
	RecName           string
	SQLConstraints    []string

	Fields  []*model.Field
	Methods []*model.Method
}

// FileRecords 是单个文件提取的全部不可变记录。
// 每个文件独立产出一份，彼此无共享可变状态，最后由 Builder 统一合并。
type FileRecords struct {
	Path string // 相对路径

	Partials []*PartialModel
	Rules    []*model.SecurityRule
	Views    []model.ViewUsage
	Menus    []model.MenuItem
	Issues   []model.ParseIssue
}
