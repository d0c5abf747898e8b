package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
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

func TestScan_Classification(t *testing.T) {
	root := writeTree(t, map[string]string{
		"__manifest__.py":              "{}",
		"models/__init__.py":           "",
		"models/book.py":               "",
		"views/book_views.xml":         "<odoo/>",
		"security/ir.model.access.csv": "id\n",
		"data/books.csv":               "a,b\n",
		"static/icon.png":              "",
		"README.md":                    "",
		".git/config":                  "should be skipped",
	})

	result, err := Scan(root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.ManifestPath != filepath.Join(result.Root, "__manifest__.py") {
		t.Errorf("unexpected manifest path: %s", result.ManifestPath)
	}
	if len(result.Python) != 2 {
		t.Errorf("expected 2 python files (manifest excluded), got %d", len(result.Python))
	}
	if len(result.XML) != 1 {
		t.Errorf("expected 1 xml file, got %d", len(result.XML))
	}
	// 所有 CSV 都进安全解析，解析不出权限列时由下游降级
	if len(result.AccessCSV) != 2 {
		t.Errorf("expected 2 csv files, got %d", len(result.AccessCSV))
	}
	// 未识别文件保留在清单里，不静默丢弃
	if len(result.Unrecognized) != 2 {
		t.Errorf("expected icon.png + README.md unrecognized, got %+v", result.Unrecognized)
	}
	for _, unit := range result.Units() {
		if filepath.Base(unit.RelPath) == "config" {
			t.Error("hidden directory must be skipped")
		}
	}
}

func TestScan_UnitsSorted(t *testing.T) {
	root := writeTree(t, map[string]string{
		"__manifest__.py": "{}",
		"models/z.py":     "",
		"models/a.py":     "",
		"views/v.xml":     "<odoo/>",
	})

	result, err := Scan(root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	units := result.Units()
	for i := 1; i < len(units); i++ {
		if units[i-1].RelPath >= units[i].RelPath {
			t.Fatalf("units not sorted: %s >= %s", units[i-1].RelPath, units[i].RelPath)
		}
	}
}

func TestScan_Purpose(t *testing.T) {
	root := writeTree(t, map[string]string{
		"__openerp__.py":          "{}",
		"models/book.py":          "",
		"security/rules.xml":      "<odoo/>",
		"wizard/import_wizard.py": "",
	})

	result, err := Scan(root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	// 老式清单名同样识别
	if filepath.Base(result.ManifestPath) != "__openerp__.py" {
		t.Errorf("expected legacy manifest recognized, got %s", result.ManifestPath)
	}

	purposes := make(map[string]Purpose)
	for _, unit := range result.Units() {
		purposes[unit.RelPath] = unit.Purpose
	}
	if purposes["models/book.py"] != PurposeModels {
		t.Errorf("expected models purpose, got %s", purposes["models/book.py"])
	}
	if purposes["security/rules.xml"] != PurposeSecurity {
		t.Errorf("expected security purpose, got %s", purposes["security/rules.xml"])
	}
	if purposes["wizard/import_wizard.py"] != PurposeOther {
		t.Errorf("expected other purpose, got %s", purposes["wizard/import_wizard.py"])
	}
}

func TestScan_DotNamedRoot(t *testing.T) {
	// 根目录名以 . 开头不算隐藏目录，模块内容不得丢弃
	root := filepath.Join(t.TempDir(), ".custom_module")
	files := map[string]string{
		"__manifest__.py":              "{}",
		"models/book.py":               "",
		"views/book_views.xml":         "<odoo/>",
		"security/ir.model.access.csv": "id\n",
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

	result, err := Scan(root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(result.Python) != 1 || len(result.XML) != 1 || len(result.AccessCSV) != 1 {
		t.Fatalf("files dropped for dot-named root: Python=%d XML=%d AccessCSV=%d",
			len(result.Python), len(result.XML), len(result.AccessCSV))
	}
}

func TestScan_NotAModule(t *testing.T) {
	root := writeTree(t, map[string]string{"main.py": ""})
	_, err := Scan(root)
	if !errors.Is(err, ErrNotAnOdooModule) {
		t.Fatalf("expected ErrNotAnOdooModule, got %v", err)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nowhere")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
