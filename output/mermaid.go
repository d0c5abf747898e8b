package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodMac/odoo-lens/model"
	"github.com/CodMac/odoo-lens/report"
)

func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "(", "_", ")", "_", "[", "_", "]", "_", " ", "_", "<", "_", ">", "_", "@", "at", "/", "_")
	return "n_" + r.Replace(id)
}

func getNodeShape(m *model.Model) string {
	switch {
	case m.Kind == model.KindTransientModel:
		return fmt.Sprintf("([\"%s <small>(transient)</small>\"])", m.Name)
	case m.Kind == model.KindAbstractModel:
		return fmt.Sprintf("{{\"%s <small>(abstract)</small>\"}}", m.Name)
	case !m.Declared:
		return fmt.Sprintf("[/\"%s <small>(extension)</small>\"/]", m.Name)
	default:
		return fmt.Sprintf("[\"%s\"]", m.Name)
	}
}

// ExportMermaidHTML 渲染模型关系图 (继承 + 关系字段边) 为自包含 HTML
func (p *Exporter) ExportMermaidHTML(rep *report.Report) (int, int, error) {
	htmlPath := filepath.Join(p.outputDir, "visualization.html")

	f, err := os.Create(htmlPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	fmt.Fprintln(f, `<!DOCTYPE html><html><head><meta charset="UTF-8"><script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script></head>
<body><div class="mermaid">graph LR`)

	module := rep.Module()
	nodeCount := 0
	for _, name := range module.ModelNames() {
		fmt.Fprintf(f, "  %s%s\n", safeID(name), getNodeShape(module.Models[name]))
		nodeCount++
	}
	// 模块外目标也画出来，悬空/外部边不丢
	for _, name := range module.ExternalModels {
		fmt.Fprintf(f, "  %s[\"%s <small>(external)</small>\"]\n", safeID(name), name)
		nodeCount++
	}

	edgeCount := 0
	for _, edge := range rep.Edges("") {
		if edge.Target == "" {
			continue
		}
		srcID, tgtID := safeID(edge.Source), safeID(edge.Target)
		if srcID == tgtID {
			continue
		}
		label := strings.ToLower(string(edge.Kind))
		if edge.Field != "" {
			label = fmt.Sprintf("%s: %s", label, edge.Field)
		}
		if edge.Kind == model.Inherits {
			fmt.Fprintf(f, "  %s -. %s .-> %s\n", srcID, label, tgtID)
		} else {
			fmt.Fprintf(f, "  %s -- %s --> %s\n", srcID, label, tgtID)
		}
		edgeCount++
	}

	fmt.Fprintln(f, `</div><script>mermaid.initialize({startOnLoad:true, maxTextSize:1000000});</script></body></html>`)
	return nodeCount, edgeCount, nil
}
