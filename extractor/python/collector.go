package python

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
)

// odooBaseClasses 是识别 Odoo 模型的基类约定
var odooBaseClasses = map[string]model.ModelKind{
	"Model":          model.KindModel,
	"TransientModel": model.KindTransientModel,
	"AbstractModel":  model.KindAbstractModel,
}

// Collector 解析单个 Python 源文件并提取模型片段。
// 每个 worker 持有独立实例 (内部的 tree-sitter parser 不可并发复用)。
type Collector struct {
	parser *sitter.Parser
}

func NewCollector() *Collector {
	parser := sitter.NewParser()
	parser.SetLanguage(sitter.NewLanguage(tree_sitter_python.Language()))
	return &Collector{parser: parser}
}

// Close 释放 tree-sitter 内部资源
func (c *Collector) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// ==========================================
// 1. 核心生命周期 (Core Workflow)
// ==========================================

// CollectFile 读取并提取一个源文件。读取失败返回错误 (由上层决定降级)；
// 语法错误不是错误，降级为 FileRecords 内的 ParseIssue。
func (c *Collector) CollectFile(path, relPath string) (*graph.FileRecords, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return c.Collect(source, relPath), nil
}

// Collect 从源码字节提取模型片段。提取是尽力而为的：
// 不认识的结构一律跳过，绝不因单个文件中断整次分析。
func (c *Collector) Collect(source []byte, relPath string) *graph.FileRecords {
	records := &graph.FileRecords{Path: relPath}

	tree := c.parser.Parse(source, nil)
	if tree == nil {
		records.Issues = append(records.Issues, model.ParseIssue{
			File: relPath, Stage: model.StagePython,
			Detail: "tree-sitter failed to parse file",
		})
		return records
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		// 语法错误：能提取多少算多少，打上部分解析标记
		records.Issues = append(records.Issues, model.ParseIssue{
			File: relPath, Stage: model.StagePython,
			Detail: "syntax errors present, extraction is partial", Partial: true,
		})
	}

	c.walkClasses(root, source, relPath, records)
	return records
}

// walkClasses 深度优先查找模型类定义
func (c *Collector) walkClasses(node *sitter.Node, source []byte, relPath string, records *graph.FileRecords) {
	if node.Kind() == "class_definition" {
		if kind, ok := c.odooModelKind(node, source); ok {
			records.Partials = append(records.Partials, c.extractModel(node, source, relPath, kind))
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c.walkClasses(node.Child(uint(i)), source, relPath, records)
	}
}

// ==========================================
// 2. 模型识别与提取 (Model Extraction)
// ==========================================

// odooModelKind 检查类的基类列表是否匹配 Odoo 模型基类约定
func (c *Collector) odooModelKind(node *sitter.Node, source []byte) (model.ModelKind, bool) {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return "", false
	}
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		base := supers.NamedChild(uint(i))
		name := ""
		switch base.Kind() {
		case "attribute":
			// models.Model / models.TransientModel / models.AbstractModel
			name = c.nodeText(base.ChildByFieldName("attribute"), source)
		case "identifier":
			name = c.nodeText(base, source)
		}
		if kind, ok := odooBaseClasses[name]; ok {
			return kind, true
		}
	}
	return "", false
}

func (c *Collector) extractModel(node *sitter.Node, source []byte, relPath string, kind model.ModelKind) *graph.PartialModel {
	partial := &graph.PartialModel{File: relPath, Kind: kind}

	body := node.ChildByFieldName("body")
	if body == nil {
		return partial
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(uint(i))
		switch stmt.Kind() {
		case "expression_statement":
			if assign := c.findNamedChildOfType(stmt, "assignment"); assign != nil {
				c.handleAssignment(assign, source, relPath, partial)
			}
		case "function_definition":
			partial.Methods = append(partial.Methods, c.extractMethod(stmt, nil, source, relPath))
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def != nil && def.Kind() == "function_definition" {
				partial.Methods = append(partial.Methods, c.extractMethod(def, stmt, source, relPath))
			}
		}
	}
	return partial
}

// handleAssignment 处理类级赋值：模型元属性 (_name/_inherit/...) 或字段声明
func (c *Collector) handleAssignment(assign *sitter.Node, source []byte, relPath string, partial *graph.PartialModel) {
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Kind() != "identifier" {
		return
	}
	target := c.nodeText(left, source)

	switch target {
	case "_name":
		if value, ok := c.stringLiteral(right, source); ok {
			partial.Name = value
		} else {
			// 动态 _name：显式标记 unresolved，绝不猜测具体值
			partial.NameUnresolved = true
		}
	case "_inherit":
		inherit, unresolved := c.stringOrList(right, source)
		partial.Inherit = inherit
		partial.InheritUnresolved = unresolved
	case "_description":
		partial.Description, _ = c.stringLiteral(right, source)
	case "_order":
		partial.Order, _ = c.stringLiteral(right, source)
	case "_rec_name":
		partial.RecName, _ = c.stringLiteral(right, source)
	case "_sql_constraints":
		partial.SQLConstraints = c.constraintNames(right, source)
	default:
		if field := c.extractField(target, right, source, relPath); field != nil {
			partial.Fields = append(partial.Fields, field)
		}
	}
}

// ==========================================
// 3. 字段提取 (Field Extraction)
// ==========================================

// extractField 识别 name = fields.X(...) 形式的字段声明。
// 右侧不是 fields 构造器调用时返回 nil (普通类属性)。
func (c *Collector) extractField(name string, right *sitter.Node, source []byte, relPath string) *model.Field {
	if strings.HasPrefix(name, "_") || right.Kind() != "call" {
		return nil
	}
	fn := right.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return nil
	}
	if c.nodeText(fn.ChildByFieldName("object"), source) != "fields" {
		return nil
	}

	constructor := c.nodeText(fn.ChildByFieldName("attribute"), source)
	kind := model.KindOfConstructor(constructor)
	field := &model.Field{
		Name:     name,
		Kind:     kind,
		Category: model.CategoryOf(kind),
		Stored:   true,
		Location: c.extractLocation(right, relPath),
	}

	args := right.ChildByFieldName("arguments")
	if args == nil {
		return field
	}

	positional := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(uint(i))
		if arg.Kind() == "keyword_argument" {
			c.applyFieldKwarg(field, arg, source)
			continue
		}
		// 关系字段的位置参数: comodel_name, (One2many 的) inverse_name
		if field.Category == model.CategoryRelational {
			if value, ok := c.stringLiteral(arg, source); ok {
				switch positional {
				case 0:
					field.Relation = value
				case 1:
					if field.Kind == model.FieldOne2many {
						field.InverseName = value
					}
				}
			}
		}
		positional++
	}
	return field
}

func (c *Collector) applyFieldKwarg(field *model.Field, kwarg *sitter.Node, source []byte) {
	name := c.nodeText(kwarg.ChildByFieldName("name"), source)
	value := kwarg.ChildByFieldName("value")
	if value == nil {
		return
	}

	switch name {
	case "comodel_name":
		field.Relation, _ = c.stringLiteral(value, source)
	case "inverse_name":
		field.InverseName, _ = c.stringLiteral(value, source)
	case "string":
		field.Description, _ = c.stringLiteral(value, source)
	case "help":
		field.Help, _ = c.stringLiteral(value, source)
	case "compute":
		field.Compute, _ = c.stringLiteral(value, source)
		field.Computed = true
	case "related":
		field.Related, _ = c.stringLiteral(value, source)
	case "store":
		field.Stored = value.Kind() == "true"
	case "required":
		field.Required = value.Kind() == "true"
	case "readonly":
		field.Readonly = value.Kind() == "true"
	}
}

// ==========================================
// 4. 方法提取 (Method Extraction)
// ==========================================

func (c *Collector) extractMethod(def *sitter.Node, decorated *sitter.Node, source []byte, relPath string) *model.Method {
	method := &model.Method{
		Name:       c.nodeText(def.ChildByFieldName("name"), source),
		Parameters: c.extractParameters(def, source),
		Complexity: c.cyclomaticComplexity(def),
		LineCount:  int(def.EndPosition().Row) - int(def.StartPosition().Row),
		Location:   c.extractLocation(def, relPath),
	}
	method.HasDocstring = c.hasDocstring(def)

	if decorated != nil {
		for i := 0; i < int(decorated.NamedChildCount()); i++ {
			child := decorated.NamedChild(uint(i))
			if child.Kind() == "decorator" {
				c.applyDecorator(method, child, source)
			}
		}
	}
	return method
}

// applyDecorator 识别 Odoo 语义相关的 api 装饰器
func (c *Collector) applyDecorator(method *model.Method, decorator *sitter.Node, source []byte) {
	expr := c.firstNamedChild(decorator)
	if expr == nil {
		return
	}

	var attr *sitter.Node
	var callArgs *sitter.Node
	switch expr.Kind() {
	case "call":
		attr = expr.ChildByFieldName("function")
		callArgs = expr.ChildByFieldName("arguments")
	case "attribute":
		attr = expr
	default:
		return
	}
	if attr == nil || attr.Kind() != "attribute" {
		return
	}
	if c.nodeText(attr.ChildByFieldName("object"), source) != "api" {
		return
	}

	name := c.nodeText(attr.ChildByFieldName("attribute"), source)
	method.Decorators = append(method.Decorators, "@api."+name)

	switch name {
	case "depends":
		method.IsCompute = true
		method.Depends = append(method.Depends, c.stringArguments(callArgs, source)...)
	case "constrains":
		method.IsConstraint = true
		method.Constrains = append(method.Constrains, c.stringArguments(callArgs, source)...)
	case "onchange":
		method.IsOnchange = true
	}
}

// cyclomaticComplexity 圈复杂度近似值：1 + 分支语句 + 布尔运算符
func (c *Collector) cyclomaticComplexity(node *sitter.Node) int {
	complexity := 1
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "if_statement", "elif_clause", "for_statement", "while_statement", "boolean_operator":
			complexity++
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(uint(i)))
		}
	}
	walk(node)
	return complexity
}

func (c *Collector) extractParameters(def *sitter.Node, source []byte) []string {
	params := def.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(uint(i))
		name := ""
		switch param.Kind() {
		case "identifier":
			name = c.nodeText(param, source)
		case "default_parameter", "typed_parameter", "typed_default_parameter":
			if n := param.ChildByFieldName("name"); n != nil {
				name = c.nodeText(n, source)
			} else if id := c.findNamedChildOfType(param, "identifier"); id != nil {
				name = c.nodeText(id, source)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			name = c.nodeText(param, source)
		}
		if name != "" && name != "self" {
			names = append(names, name)
		}
	}
	return names
}

func (c *Collector) hasDocstring(def *sitter.Node) bool {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return false
	}
	first := body.NamedChild(0)
	if first.Kind() != "expression_statement" {
		return false
	}
	inner := c.firstNamedChild(first)
	return inner != nil && (inner.Kind() == "string" || inner.Kind() == "concatenated_string")
}

// ==========================================
// 5. 字面量工具 (Literal Helpers)
// ==========================================

// stringLiteral 提取字符串字面量的值。非字面量 (变量、f-string 插值、调用)
// 返回 ok=false，调用方据此走 unresolved 路径。
func (c *Collector) stringLiteral(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		var sb strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(uint(i))
			switch child.Kind() {
			case "string_content", "escape_sequence":
				sb.WriteString(c.nodeText(child, source))
			case "interpolation":
				// f-string 插值不是静态可解析的字面量
				return "", false
			}
		}
		return sb.String(), true
	case "concatenated_string":
		var sb strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part, ok := c.stringLiteral(node.NamedChild(uint(i)), source)
			if !ok {
				return "", false
			}
			sb.WriteString(part)
		}
		return sb.String(), true
	}
	return "", false
}

// stringOrList 处理 _inherit 的两种合法形态：字符串或字符串列表。
// 任一元素非字面量时置 unresolved，已解析出的元素仍然保留。
func (c *Collector) stringOrList(node *sitter.Node, source []byte) ([]string, bool) {
	if value, ok := c.stringLiteral(node, source); ok {
		return []string{value}, false
	}
	if node.Kind() != "list" {
		return nil, true
	}
	var values []string
	unresolved := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if value, ok := c.stringLiteral(node.NamedChild(uint(i)), source); ok {
			values = append(values, value)
		} else {
			unresolved = true
		}
	}
	return values, unresolved
}

// constraintNames 取 _sql_constraints 列表里每个元组的首元素 (约束名)
func (c *Collector) constraintNames(node *sitter.Node, source []byte) []string {
	if node.Kind() != "list" {
		return nil
	}
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		item := node.NamedChild(uint(i))
		if item.Kind() != "tuple" || item.NamedChildCount() == 0 {
			continue
		}
		if name, ok := c.stringLiteral(item.NamedChild(0), source); ok {
			names = append(names, name)
		}
	}
	return names
}

// stringArguments 提取调用参数里的全部字符串字面量
func (c *Collector) stringArguments(args *sitter.Node, source []byte) []string {
	if args == nil {
		return nil
	}
	var values []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if value, ok := c.stringLiteral(args.NamedChild(uint(i)), source); ok {
			values = append(values, value)
		}
	}
	return values
}

// ==========================================
// 6. 原子辅助函数 (Atomic Helpers)
// ==========================================

func (c *Collector) nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(source)
}

func (c *Collector) firstNamedChild(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func (c *Collector) findNamedChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

func (c *Collector) extractLocation(n *sitter.Node, filePath string) *model.Location {
	return &model.Location{
		FilePath:  filePath,
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
	}
}
