package python

import (
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/CodMac/odoo-lens/model"
)

// ReadManifest 解析 __manifest__.py 的字典字面量。
// 清单整体是声明性数据，这里等价于对其做受限的 literal-eval：
// 只解释字符串键、字符串/字符串列表值，其余值原样忽略。
func (c *Collector) ReadManifest(path, relPath string) (model.Manifest, []model.ParseIssue) {
	manifest := model.Manifest{Extra: make(map[string]string)}

	source, err := os.ReadFile(path)
	if err != nil {
		return manifest, []model.ParseIssue{{
			File: relPath, Stage: model.StageManifest,
			Detail: fmt.Sprintf("failed to read manifest: %v", err),
		}}
	}

	tree := c.parser.Parse(source, nil)
	if tree == nil {
		return manifest, []model.ParseIssue{{
			File: relPath, Stage: model.StageManifest,
			Detail: "tree-sitter failed to parse manifest",
		}}
	}
	defer tree.Close()

	dict := c.findDictionary(tree.RootNode())
	if dict == nil {
		return manifest, []model.ParseIssue{{
			File: relPath, Stage: model.StageManifest,
			Detail: "manifest does not contain a dictionary literal",
		}}
	}

	var issues []model.ParseIssue
	if tree.RootNode().HasError() {
		issues = append(issues, model.ParseIssue{
			File: relPath, Stage: model.StageManifest,
			Detail: "syntax errors present, manifest is partial", Partial: true,
		})
	}

	for i := 0; i < int(dict.NamedChildCount()); i++ {
		pair := dict.NamedChild(uint(i))
		if pair.Kind() != "pair" {
			continue
		}
		key, ok := c.stringLiteral(pair.ChildByFieldName("key"), source)
		if !ok {
			continue
		}
		value := pair.ChildByFieldName("value")

		switch key {
		case "name":
			manifest.Name, _ = c.stringLiteral(value, source)
		case "version":
			manifest.Version, _ = c.stringLiteral(value, source)
		case "depends":
			deps, _ := c.stringOrList(value, source)
			manifest.Depends = deps
		default:
			if text, ok := c.stringLiteral(value, source); ok {
				manifest.Extra[key] = text
			}
		}
	}
	return manifest, issues
}

func (c *Collector) findDictionary(node *sitter.Node) *sitter.Node {
	if node.Kind() == "dictionary" {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := c.findDictionary(node.NamedChild(uint(i))); found != nil {
			return found
		}
	}
	return nil
}
