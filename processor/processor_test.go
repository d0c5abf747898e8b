package processor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
	"github.com/CodMac/odoo-lens/scanner"
)

// writeModule 在临时目录铺一个最小但完整的 Odoo 模块
func writeModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"__manifest__.py": `{
    "name": "Library",
    "version": "16.0.1.0.0",
    "depends": ["base"],
}`,
		"models/__init__.py": "from . import library_book\n",
		"models/library_book.py": `
from odoo import api, fields, models


class LibraryBook(models.Model):
    _name = "library.book"
    _description = "Library Book"

    name = fields.Char(required=True)
    author_id = fields.Many2one("library.author")
    display_label = fields.Char(compute="_compute_display_label", store=False)

    @api.depends("name")
    def _compute_display_label(self):
        for record in self:
            record.display_label = record.name


class LibraryAuthor(models.Model):
    _name = "library.author"
    _description = "Library Author"

    name = fields.Char()
    book_ids = fields.One2many("library.book", "author_id")
`,
		"views/library_views.xml": `<odoo>
    <record id="library_book_view_form" model="ir.ui.view">
        <field name="name">library.book.form</field>
        <field name="model">library.book</field>
        <field name="arch" type="xml">
            <form><field name="name"/><field name="author_id"/></form>
        </field>
    </record>
    <menuitem id="menu_library" name="Library"/>
</odoo>`,
		"security/ir.model.access.csv": `id,name,model_id:id,group_id:id,perm_read,perm_write,perm_create,perm_unlink
access_library_book,library.book,model_library_book,base.group_user,1,1,1,1
`,
		"static/description/icon.png": "not really a png",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestRun_FullModule(t *testing.T) {
	root := writeModule(t)

	rep, scan, err := NewPipeline(2, graph.PolicyAssumed).Run(root)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	module := rep.Module()

	if module.Manifest.Name != "Library" || module.Manifest.Version != "16.0.1.0.0" {
		t.Errorf("unexpected manifest: %+v", module.Manifest)
	}
	if len(module.Models) != 2 {
		t.Fatalf("expected 2 models, got %d (%v)", len(module.Models), module.ModelNames())
	}

	book := module.Models["library.book"]
	if book == nil {
		t.Fatal("library.book missing")
	}
	// 安全规则归一化后挂接到模型
	if len(book.Rules) != 1 || book.Rules[0].Group != "base.group_user" {
		t.Errorf("expected attached access rule, got %+v", book.Rules)
	}
	// 视图引用回标到字段
	if got := book.Fields["name"].UsedInViews; len(got) != 1 || got[0] != "form" {
		t.Errorf("expected view usage marker, got %v", got)
	}
	// One2many 的反向 Many2one 在模块内解析
	author := module.Models["library.author"]
	if author.Fields["book_ids"].RelationState != model.RelationResolved {
		t.Errorf("expected resolved one2many, got %s", author.Fields["book_ids"].RelationState)
	}

	findings := rep.Findings()
	counts := make(map[model.FindingRule]int)
	for _, f := range findings {
		counts[f.Rule]++
	}
	// author 没有安全规则; display_label 非存储计算字段
	if counts[model.MissingSecurity] != 1 {
		t.Errorf("expected 1 missing-security (author), got %d: %+v", counts[model.MissingSecurity], findings)
	}
	if counts[model.PerformanceRisk] != 1 {
		t.Errorf("expected 1 performance-risk, got %d", counts[model.PerformanceRisk])
	}
	if counts[model.DanglingRelation] != 0 || counts[model.ParseDegraded] != 0 {
		t.Errorf("expected clean graph, got %+v", counts)
	}

	if len(scan.Unrecognized) != 1 {
		t.Errorf("expected icon.png unrecognized, got %+v", scan.Unrecognized)
	}
	if len(module.Menus) != 1 || module.Menus[0].ID != "menu_library" {
		t.Errorf("expected menu item collected, got %+v", module.Menus)
	}
}

func TestRun_NotAModule(t *testing.T) {
	_, _, err := NewPipeline(1, graph.PolicyAssumed).Run(t.TempDir())
	if !errors.Is(err, scanner.ErrNotAnOdooModule) {
		t.Fatalf("expected ErrNotAnOdooModule, got %v", err)
	}
}

func TestRun_BrokenFileDegrades(t *testing.T) {
	root := writeModule(t)
	broken := filepath.Join(root, "models", "broken.py")
	if err := os.WriteFile(broken, []byte("class Broken(models.Model):\n    _name = \"x\"\n    name = fields.Char(\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rep, _, err := NewPipeline(2, graph.PolicyAssumed).Run(root)
	if err != nil {
		t.Fatalf("pipeline must not fail on a single bad file: %v", err)
	}

	degraded := 0
	for _, f := range rep.Findings() {
		if f.Rule == model.ParseDegraded {
			degraded++
		}
	}
	if degraded == 0 {
		t.Error("expected parse degradation surfaced as finding")
	}
}

func TestRun_Deterministic(t *testing.T) {
	root := writeModule(t)

	first, _, err := NewPipeline(4, graph.PolicyAssumed).Run(root)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, _, err := NewPipeline(1, graph.PolicyAssumed).Run(root)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// 并发度不影响结果：模型集合与 finding 数量一致
	a, b := first.Module().ModelNames(), second.Module().ModelNames()
	if len(a) != len(b) {
		t.Fatalf("model sets differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("model sets differ: %v vs %v", a, b)
		}
	}
	if len(first.Findings()) != len(second.Findings()) {
		t.Errorf("finding counts differ: %d vs %d", len(first.Findings()), len(second.Findings()))
	}
}
