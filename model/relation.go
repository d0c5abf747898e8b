package model

// --- 模型关系类型 (Relation Kinds) ---

// RelationKind 是模型之间关系边的类型
type RelationKind string

const (
	// Inherits 继承: _inherit 指向基模型
	// e.g. [Source(res.partner.custom) -> Target(res.partner)]
	Inherits RelationKind = "INHERITS"

	// Many2one 多对一关系字段
	Many2one RelationKind = "MANY2ONE"

	// One2many 一对多关系字段 (依赖目标模型上的反向 Many2one)
	One2many RelationKind = "ONE2MANY"

	// Many2many 多对多关系字段
	Many2many RelationKind = "MANY2MANY"
)

// RelationKindOf 把关系字段类型映射为关系边类型
func RelationKindOf(kind FieldKind) (RelationKind, bool) {
	switch kind {
	case FieldMany2one:
		return Many2one, true
	case FieldOne2many:
		return One2many, true
	case FieldMany2many:
		return Many2many, true
	}
	return "", false
}

// RelationEdge 是派生的关系边，仅供 Analyzer/Query 层使用。
// 永远从 Model/Field 图重算，不独立持久化。
type RelationEdge struct {
	Source string        `json:"Source"` // 源模型技术名
	Target string        `json:"Target"` // 目标模型技术名
	Kind   RelationKind  `json:"Kind"`
	Field  string        `json:"Field,omitempty"` // 产生该边的字段名 (继承边为空)
	State  RelationState `json:"State"`           // 目标解析状态
}
