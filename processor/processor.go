// Package processor 串起 scan -> extract -> build -> analyze 流水线。
// 文件级提取跨文件天然并行 (记录之间无共享可变状态)，
// 合并阶段单线程且按路径排序，结果与扫描/调度顺序无关。
package processor

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/CodMac/odoo-lens/extractor/python"
	"github.com/CodMac/odoo-lens/extractor/xmldata"
	"github.com/CodMac/odoo-lens/graph"
	"github.com/CodMac/odoo-lens/model"
	"github.com/CodMac/odoo-lens/report"
	"github.com/CodMac/odoo-lens/scanner"
)

type Pipeline struct {
	Jobs   int
	Policy graph.Policy
}

func NewPipeline(jobs int, policy graph.Policy) *Pipeline {
	if jobs <= 0 {
		jobs = 4
	}
	return &Pipeline{Jobs: jobs, Policy: policy}
}

// Run 对模块目录执行一次完整分析。
// 致命错误 (无清单/根目录不可读) 直接返回；单文件解析失败降级为图上的 ParseIssue。
func (p *Pipeline) Run(rootPath string) (*report.Report, *scanner.Result, error) {
	scan, err := scanner.Scan(rootPath)
	if err != nil {
		return nil, nil, err
	}

	// 清单在主协程解析一次 (它决定模块身份，不进 worker 池)
	manifestCollector := python.NewCollector()
	manifestRel, _ := filepath.Rel(scan.Root, scan.ManifestPath)
	manifest, manifestIssues := manifestCollector.ReadManifest(scan.ManifestPath, filepath.ToSlash(manifestRel))
	manifestCollector.Close()

	// --- 阶段 1: 并行提取 (每文件一份独立记录) ---
	units := scan.Units()
	var mu sync.Mutex
	records := make([]*graph.FileRecords, 0, len(units)+1)
	if len(manifestIssues) > 0 {
		records = append(records, &graph.FileRecords{Path: filepath.ToSlash(manifestRel), Issues: manifestIssues})
	}

	err = p.runParallel(units, func(unit scanner.Unit, collector *python.Collector, xml *xmldata.Extractor) error {
		var fileRecords *graph.FileRecords
		var collectErr error

		switch unit.Class {
		case scanner.ClassPython:
			fileRecords, collectErr = collector.CollectFile(unit.Path, unit.RelPath)
		case scanner.ClassXML:
			fileRecords, collectErr = xml.CollectFile(unit.Path, unit.RelPath)
		case scanner.ClassAccessCSV:
			fileRecords, collectErr = xml.CollectAccessFile(unit.Path, unit.RelPath)
		default:
			return nil
		}
		if collectErr != nil {
			// 单文件读取失败同样降级，不阻塞其余文件
			fileRecords = &graph.FileRecords{Path: unit.RelPath, Issues: []model.ParseIssue{{
				File: unit.RelPath, Stage: stageOf(unit.Class),
				Detail: fmt.Sprintf("unreadable: %v", collectErr),
			}}}
		}

		mu.Lock()
		records = append(records, fileRecords)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// --- 阶段 2: 单线程确定性合并 ---
	module := graph.NewBuilder(p.Policy).Build(scan.Root, manifest, records)

	// --- 阶段 3: 分析 (纯函数，构建在 report.New 内完成) ---
	return report.New(module), scan, nil
}

func stageOf(class scanner.FileClass) model.ParseStage {
	switch class {
	case scanner.ClassXML:
		return model.StageXML
	case scanner.ClassAccessCSV:
		return model.StageCSV
	default:
		return model.StagePython
	}
}

// runParallel 内部并发调度器：每个 worker 持有独立的解析器实例
func (p *Pipeline) runParallel(units []scanner.Unit, task func(scanner.Unit, *python.Collector, *xmldata.Extractor) error) error {
	unitChan := make(chan scanner.Unit, len(units))
	for _, unit := range units {
		unitChan <- unit
	}
	close(unitChan)

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i := 0; i < p.Jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector := python.NewCollector()
			defer collector.Close()
			xml := xmldata.NewExtractor()

			for unit := range unitChan {
				if err := task(unit, collector, xml); err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
