package model

// --- 质量问题 (Quality Findings) ---

// Severity 表示质量问题的严重程度
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// FindingRule 是质量规则的封闭编码集
type FindingRule string

const (
	MissingDescription FindingRule = "missing-description" // 模型缺少 _description
	MissingSecurity    FindingRule = "missing-security"    // 模型没有任何安全规则
	PerformanceRisk    FindingRule = "performance-risk"    // 非存储计算字段
	OrphanOne2many     FindingRule = "orphan-one2many"     // One2many 反向字段无法解析
	DanglingRelation   FindingRule = "dangling-relation"   // 关系目标模型不存在
	InheritanceCycle   FindingRule = "inheritance-cycle"   // InheritanceCycleDetected
	ComplexMethod      FindingRule = "complex-method"      // 圈复杂度超阈值
	ParseDegraded      FindingRule = "parse-degraded"      // 文件未解析或部分解析
)

// Finding 是一条质量分析结果。结构性问题是分析的产物而非错误，
// 永远上报，从不吞掉。
type Finding struct {
	Rule     FindingRule `json:"Rule"`
	Severity Severity    `json:"Severity"`
	Model    string      `json:"Model,omitempty"`
	Field    string      `json:"Field,omitempty"`
	Method   string      `json:"Method,omitempty"`
	File     string      `json:"File,omitempty"`
	Message  string      `json:"Message"`
}
