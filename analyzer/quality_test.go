package analyzer

import (
	"testing"

	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
)

func buildModule(t *testing.T, policy graph.Policy, records []*graph.FileRecords) *model.Module {
	t.Helper()
	return graph.NewBuilder(policy).Build("/mod", model.Manifest{Name: "mod"}, records)
}

func countRule(findings []model.Finding, rule model.FindingRule) int {
	n := 0
	for _, f := range findings {
		if f.Rule == rule {
			n++
		}
	}
	return n
}

func TestQuality_CustomizationModule(t *testing.T) {
	// 一个典型定制模块: 声明无 _description 的模型、非存储计算字段、
	// 指向模块外 res.partner 的 Many2one、没有任何安全规则
	records := []*graph.FileRecords{{Path: "models/custom.py", Partials: []*graph.PartialModel{{
		File: "models/custom.py", Name: "res.partner.custom",
		Fields: []*model.Field{
			{Name: "partner_id", Kind: model.FieldMany2one, Category: model.CategoryRelational,
				Relation: "res.partner", Stored: true},
			{Name: "score_label", Kind: model.FieldChar, Category: model.CategoryBasic,
				Computed: true, Compute: "_compute_score_label", Stored: false},
		},
	}}}}

	module := buildModule(t, graph.PolicyAssumed, records)
	findings := Quality(module)

	if got := countRule(findings, model.MissingDescription); got != 1 {
		t.Errorf("expected 1 missing-description, got %d", got)
	}
	if got := countRule(findings, model.MissingSecurity); got != 1 {
		t.Errorf("expected 1 missing-security, got %d", got)
	}
	if got := countRule(findings, model.PerformanceRisk); got != 1 {
		t.Errorf("expected 1 performance-risk, got %d", got)
	}
	// assumed 策略下模块外目标不是悬空关系
	if got := countRule(findings, model.DanglingRelation); got != 0 {
		t.Errorf("expected no dangling findings under assumed policy, got %d", got)
	}
}

func TestQuality_DanglingRelation(t *testing.T) {
	records := []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
		File: "models/a.py", Name: "x", Description: "X",
		Fields: []*model.Field{{
			Name: "ghost_id", Kind: model.FieldMany2one, Category: model.CategoryRelational,
			Relation: "no.such.model", Stored: true,
		}},
	}}}}

	module := buildModule(t, graph.PolicyDangling, records)
	findings := Quality(module)
	if got := countRule(findings, model.DanglingRelation); got != 1 {
		t.Fatalf("expected exactly 1 dangling finding, got %d: %+v", got, findings)
	}
}

func TestQuality_ExtensionNotBlamed(t *testing.T) {
	// 纯 _inherit 扩展片段不按完整模型问责
	records := []*graph.FileRecords{{Path: "models/ext.py", Partials: []*graph.PartialModel{{
		File: "models/ext.py", Inherit: []string{"res.partner"},
		Fields: []*model.Field{{Name: "nickname", Kind: model.FieldChar, Category: model.CategoryBasic, Stored: true}},
	}}}}

	findings := Quality(buildModule(t, graph.PolicyAssumed, records))
	if got := countRule(findings, model.MissingDescription); got != 0 {
		t.Errorf("extension fragment: expected no missing-description, got %d", got)
	}
	if got := countRule(findings, model.MissingSecurity); got != 0 {
		t.Errorf("extension fragment: expected no missing-security, got %d", got)
	}
}

func TestQuality_OrphanOne2many(t *testing.T) {
	one2many := func(inverse string) []*graph.FileRecords {
		return []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
			File: "models/a.py", Name: "library.author", Description: "Author",
			Fields: []*model.Field{{
				Name: "book_ids", Kind: model.FieldOne2many, Category: model.CategoryRelational,
				Relation: "library.book", InverseName: inverse, Stored: true,
			}},
		}, {
			File: "models/a.py", Name: "library.book", Description: "Book",
			Fields: []*model.Field{{
				Name: "author_id", Kind: model.FieldMany2one, Category: model.CategoryRelational,
				Relation: "library.author", Stored: true,
			}},
		}}}}
	}

	good := Quality(buildModule(t, graph.PolicyAssumed, one2many("author_id")))
	if got := countRule(good, model.OrphanOne2many); got != 0 {
		t.Errorf("matching inverse: expected no orphan finding, got %d", got)
	}

	bad := Quality(buildModule(t, graph.PolicyAssumed, one2many("publisher_id")))
	if got := countRule(bad, model.OrphanOne2many); got != 1 {
		t.Errorf("missing inverse field: expected 1 orphan finding, got %d", got)
	}
}

func TestQuality_InheritanceCycleTerminates(t *testing.T) {
	records := []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
		File: "models/a.py", Name: "a", Description: "A", Inherit: []string{"b"},
	}, {
		File: "models/a.py", Name: "b", Description: "B", Inherit: []string{"a"},
	}}}}

	module := buildModule(t, graph.PolicyAssumed, records)

	// 环上的每个模型各产出一条 error 级 finding，且分析必须正常返回
	findings := Quality(module)
	if got := countRule(findings, model.InheritanceCycle); got != 2 {
		t.Errorf("expected cycle reported for both models, got %d", got)
	}
	for _, f := range findings {
		if f.Rule == model.InheritanceCycle && f.Severity != model.SeverityError {
			t.Errorf("cycle finding must be error severity, got %s", f.Severity)
		}
	}

	if _, cycle := InheritanceChain(module, "a"); !cycle {
		t.Error("expected cycle flag from InheritanceChain")
	}
}

func TestQuality_ComplexMethod(t *testing.T) {
	records := []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
		File: "models/a.py", Name: "x", Description: "X",
		Methods: []*model.Method{
			{Name: "simple", Complexity: 3},
			{Name: "tangled", Complexity: 14},
		},
	}}}}

	findings := Quality(buildModule(t, graph.PolicyAssumed, records))
	// x 没有安全规则，过滤出 complex-method 单独断言
	if got := countRule(findings, model.ComplexMethod); got != 1 {
		t.Fatalf("expected 1 complex-method finding, got %d", got)
	}
	for _, f := range findings {
		if f.Rule == model.ComplexMethod && (f.Method != "tangled" || f.Severity != model.SeverityInfo) {
			t.Errorf("unexpected complex-method finding: %+v", f)
		}
	}
}

func TestQuality_ParseIssuesSurfaced(t *testing.T) {
	records := []*graph.FileRecords{{
		Path: "models/broken.py",
		Issues: []model.ParseIssue{{
			File: "models/broken.py", Stage: model.StagePython, Detail: "syntax error", Partial: true,
		}},
	}}

	findings := Quality(buildModule(t, graph.PolicyAssumed, records))
	if got := countRule(findings, model.ParseDegraded); got != 1 {
		t.Fatalf("expected 1 parse-degraded finding, got %d", got)
	}
	for _, f := range findings {
		if f.Rule == model.ParseDegraded && f.Severity != model.SeverityInfo {
			t.Errorf("partial degradation should be info severity, got %s", f.Severity)
		}
	}
}

func TestEdges(t *testing.T) {
	records := []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
		File: "models/a.py", Name: "library.book", Description: "Book",
		Inherit: []string{"mail.thread"},
		Fields: []*model.Field{{
			Name: "author_id", Kind: model.FieldMany2one, Category: model.CategoryRelational,
			Relation: "library.author", Stored: true,
		}, {
			Name: "name", Kind: model.FieldChar, Category: model.CategoryBasic, Stored: true,
		}},
	}, {
		File: "models/a.py", Name: "library.author", Description: "Author",
	}}}}

	module := buildModule(t, graph.PolicyAssumed, records)
	edges := Edges(module)
	if len(edges) != 2 {
		t.Fatalf("expected inherit + many2one edges, got %d: %+v", len(edges), edges)
	}

	var inherit, relation *model.RelationEdge
	for i := range edges {
		switch edges[i].Kind {
		case model.Inherits:
			inherit = &edges[i]
		case model.Many2one:
			relation = &edges[i]
		}
	}
	if inherit == nil || inherit.Target != "mail.thread" || inherit.State != model.RelationExternal {
		t.Errorf("unexpected inherit edge: %+v", inherit)
	}
	if relation == nil || relation.Target != "library.author" || relation.State != model.RelationResolved {
		t.Errorf("unexpected relation edge: %+v", relation)
	}

	if out := Outgoing(module, "library.book"); len(out) != 2 {
		t.Errorf("expected 2 outgoing edges, got %d", len(out))
	}
	if in := Incoming(module, "library.author"); len(in) != 1 || in[0].Field != "author_id" {
		t.Errorf("unexpected incoming edges: %+v", in)
	}
}

func TestInheritanceChain(t *testing.T) {
	records := []*graph.FileRecords{{Path: "models/a.py", Partials: []*graph.PartialModel{{
		File: "models/a.py", Name: "c", Description: "C", Inherit: []string{"b"},
	}, {
		File: "models/a.py", Name: "b", Description: "B", Inherit: []string{"a"},
	}, {
		File: "models/a.py", Name: "a", Description: "A",
	}}}}

	module := buildModule(t, graph.PolicyAssumed, records)
	chain, cycle := InheritanceChain(module, "c")
	if cycle {
		t.Fatal("unexpected cycle")
	}
	want := []string{"a", "b", "c"}
	if len(chain) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, chain)
		}
	}
}
