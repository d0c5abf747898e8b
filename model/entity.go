package model

// --- 模型实体类型 (Odoo Entity Kinds) ---

// ModelKind 表示 Odoo 模型基类的类型
type ModelKind string

const (
	KindModel          ModelKind = "MODEL"           // models.Model          -> 持久化业务模型
	KindTransientModel ModelKind = "TRANSIENT_MODEL" // models.TransientModel -> 临时模型 (向导)
	KindAbstractModel  ModelKind = "ABSTRACT_MODEL"  // models.AbstractModel  -> 抽象模型 (mixin)
)

// FieldKind 是字段构造器名称对应的封闭标签集。
// 未识别的构造器一律映射为 FieldUnknown，绝不静默丢弃。
type FieldKind string

const (
	FieldChar      FieldKind = "Char"
	FieldText      FieldKind = "Text"
	FieldHtml      FieldKind = "Html"
	FieldBoolean   FieldKind = "Boolean"
	FieldInteger   FieldKind = "Integer"
	FieldFloat     FieldKind = "Float"
	FieldMonetary  FieldKind = "Monetary"
	FieldDate      FieldKind = "Date"
	FieldDatetime  FieldKind = "Datetime"
	FieldBinary    FieldKind = "Binary"
	FieldSelection FieldKind = "Selection"
	FieldJson      FieldKind = "Json"
	FieldReference FieldKind = "Reference"
	FieldMany2one  FieldKind = "Many2one"
	FieldOne2many  FieldKind = "One2many"
	FieldMany2many FieldKind = "Many2many"
	FieldUnknown   FieldKind = "Unknown"
)

// FieldCategory 是字段的粗粒度分类 (basic / relational / computed / unknown)。
// Field.Category 由构造器类型决定；computed 不由 CategoryOf 产出，
// 而是展示分组时对带 compute= 的字段做的优先归类。
type FieldCategory string

const (
	CategoryBasic      FieldCategory = "basic"
	CategoryRelational FieldCategory = "relational"
	CategoryComputed   FieldCategory = "computed"
	CategoryUnknown    FieldCategory = "unknown"
)

// fieldKindTable 是构造器名称到 FieldKind 的显式映射表
var fieldKindTable = map[string]FieldKind{
	"Char": FieldChar, "Text": FieldText, "Html": FieldHtml,
	"Boolean": FieldBoolean, "Integer": FieldInteger, "Float": FieldFloat,
	"Monetary": FieldMonetary, "Date": FieldDate, "Datetime": FieldDatetime,
	"Binary": FieldBinary, "Selection": FieldSelection, "Json": FieldJson,
	"Reference": FieldReference,
	"Many2one":  FieldMany2one, "One2many": FieldOne2many, "Many2many": FieldMany2many,
}

// KindOfConstructor 把 fields.X(...) 中的构造器名 X 映射到封闭标签集
func KindOfConstructor(name string) FieldKind {
	if kind, ok := fieldKindTable[name]; ok {
		return kind
	}
	return FieldUnknown
}

// CategoryOf 返回 FieldKind 对应的粗分类
func CategoryOf(kind FieldKind) FieldCategory {
	switch kind {
	case FieldMany2one, FieldOne2many, FieldMany2many:
		return CategoryRelational
	case FieldUnknown:
		return CategoryUnknown
	default:
		return CategoryBasic
	}
}

// RelationState 表示关系字段目标模型的解析状态
type RelationState string

const (
	RelationResolved RelationState = "resolved" // 目标模型在本模块内声明
	RelationExternal RelationState = "external" // 目标模型不在本模块内，按配置视为框架模型
	RelationDangling RelationState = "dangling" // 目标模型无法解析 (质量问题，非硬错误)
)

// Location 描述实体在源码中的位置
type Location struct {
	FilePath  string `json:"FilePath"`
	StartLine int    `json:"StartLine"`
	EndLine   int    `json:"EndLine"`
}

// Field 描述模型上的一个字段声明
type Field struct {
	Name          string        `json:"Name"`
	Kind          FieldKind     `json:"Kind"`
	Category      FieldCategory `json:"Category"`
	Description   string        `json:"Description,omitempty"` // string= 关键字参数
	Help          string        `json:"Help,omitempty"`
	Relation      string        `json:"Relation,omitempty"`      // comodel_name (仅关系字段)
	InverseName   string        `json:"InverseName,omitempty"`   // One2many 的 inverse_name
	RelationState RelationState `json:"RelationState,omitempty"` // 由 Graph Builder 回填
	Compute       string        `json:"Compute,omitempty"`       // compute= 方法名
	Computed      bool          `json:"Computed"`
	Stored        bool          `json:"Stored"`
	Required      bool          `json:"Required,omitempty"`
	Readonly      bool          `json:"Readonly,omitempty"`
	Related       string        `json:"Related,omitempty"`
	UsedInViews   []string      `json:"UsedInViews,omitempty"` // 引用该字段的视图类型列表
	Location      *Location     `json:"Location,omitempty"`
}

// Method 描述模型上的一个方法定义
type Method struct {
	Name         string    `json:"Name"`
	Parameters   []string  `json:"Parameters,omitempty"` // 不含 self
	Decorators   []string  `json:"Decorators,omitempty"` // e.g. "@api.depends"
	Depends      []string  `json:"Depends,omitempty"`    // @api.depends 的字段参数
	Constrains   []string  `json:"Constrains,omitempty"` // @api.constrains 的字段参数
	IsCompute    bool      `json:"IsCompute,omitempty"`
	IsConstraint bool      `json:"IsConstraint,omitempty"`
	IsOnchange   bool      `json:"IsOnchange,omitempty"`
	HasDocstring bool      `json:"HasDocstring"`
	Complexity   int       `json:"Complexity"` // 圈复杂度近似值
	LineCount    int       `json:"LineCount"`
	Location     *Location `json:"Location,omitempty"`
}

// SecurityRuleOrigin 区分安全规则的来源载体
type SecurityRuleOrigin string

const (
	OriginAccessCSV  SecurityRuleOrigin = "access-csv"  // ir.model.access.csv 行
	OriginRecordRule SecurityRuleOrigin = "record-rule" // ir.rule XML 记录
)

// SecurityRule 是绑定 (模型, 用户组, CRUD 权限位) 的访问控制记录。
// 规则在逻辑上属于安全子系统，挂到 Model 上只是为了查询方便。
type SecurityRule struct {
	Name        string             `json:"Name"` // XML id / CSV id 列
	Model       string             `json:"Model"`
	Group       string             `json:"Group,omitempty"`
	PermRead    bool               `json:"PermRead"`
	PermWrite   bool               `json:"PermWrite"`
	PermCreate  bool               `json:"PermCreate"`
	PermUnlink  bool               `json:"PermUnlink"`
	DomainForce string             `json:"DomainForce,omitempty"`
	Origin      SecurityRuleOrigin `json:"Origin"`
	SourceFile  string             `json:"SourceFile,omitempty"`
}

// ViewUsage 记录一次视图对 (模型, 字段) 的引用
type ViewUsage struct {
	ViewID     string `json:"ViewID"`
	Model      string `json:"Model"`
	Field      string `json:"Field"`
	ViewType   string `json:"ViewType"` // form / tree / kanban / search / ...
	SourceFile string `json:"SourceFile,omitempty"`
}

// MenuItem 描述 XML 中声明的菜单项
type MenuItem struct {
	ID       string   `json:"ID"`
	Name     string   `json:"Name"`
	Parent   string   `json:"Parent,omitempty"`
	Action   string   `json:"Action,omitempty"`
	Sequence int      `json:"Sequence"`
	Groups   []string `json:"Groups,omitempty"`
}

// Model 表示一个逻辑上的 Odoo 模型。
// 同一 _name 的多个源码片段（继承扩展）在 Graph Builder 中合并为一个 Model。
type Model struct {
	Name           string    `json:"Name"` // 技术名，模块内唯一键
	Kind           ModelKind `json:"Kind"`
	Description    string    `json:"Description,omitempty"`
	Inherit        []string  `json:"Inherit,omitempty"` // _inherit 基模型列表
	Order          string    `json:"Order,omitempty"`
	RecName        string    `json:"RecName,omitempty"`
	SQLConstraints []string  `json:"SQLConstraints,omitempty"`
	NameUnresolved bool      `json:"NameUnresolved,omitempty"` // _name 为动态表达式时置位

	// InheritUnresolved 表示 _inherit 含非字面量元素
	InheritUnresolved bool `json:"InheritUnresolved,omitempty"`

	// Declared 表示模块内存在带 _name 的定义片段。
	// 仅 _inherit 外部模型的扩展片段 Declared 为 false，质量规则跳过这类模型。
	Declared bool `json:"Declared,omitempty"`

	Fields  map[string]*Field  `json:"Fields"`
	Methods map[string]*Method `json:"Methods"`

	// Rules 引用指向本模型的安全规则 (非独占所有)
	Rules []*SecurityRule `json:"Rules,omitempty"`

	// SourceFiles 记录贡献过本模型定义的所有源文件 (按路径有序)
	SourceFiles []string `json:"SourceFiles,omitempty"`
}

// NewModel 创建一个空 Model
func NewModel(name string) *Model {
	return &Model{
		Name:    name,
		Kind:    KindModel,
		Fields:  make(map[string]*Field),
		Methods: make(map[string]*Method),
	}
}

// IsDerived 判断该模型是否为 "新 _name + _inherit 基模型" 的派生模型
func (m *Model) IsDerived() bool {
	return len(m.Inherit) > 0 && m.Name != "" && !contains(m.Inherit, m.Name)
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
