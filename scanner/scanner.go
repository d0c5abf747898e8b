package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotAnOdooModule 表示根目录下没有模块清单文件
var ErrNotAnOdooModule = errors.New("not an odoo module: no manifest file found")

// FileClass 是扫描阶段的文件分类。每个文件恰好落入一类，没有文件被静默丢弃。
type FileClass string

const (
	ClassPython       FileClass = "python"
	ClassXML          FileClass = "xml"
	ClassAccessCSV    FileClass = "access-csv" // ir.model.access.csv 形态的安全清单
	ClassManifest     FileClass = "manifest"
	ClassUnrecognized FileClass = "unrecognized"
)

// Purpose 是按 Odoo 目录惯例推断的用途提示，仅作下游分类参考，不影响正确性
type Purpose string

const (
	PurposeModels   Purpose = "models"
	PurposeViews    Purpose = "views"
	PurposeSecurity Purpose = "security"
	PurposeData     Purpose = "data"
	PurposeOther    Purpose = "other"
)

// Unit 是一个待解析的源文件
type Unit struct {
	Path    string // 绝对路径
	RelPath string // 相对模块根的路径
	Class   FileClass
	Purpose Purpose
}

// Result 是扫描结果：按类别分好的文件清单
type Result struct {
	Root         string
	ManifestPath string
	Python       []Unit
	XML          []Unit
	AccessCSV    []Unit
	Unrecognized []Unit
}

// Units 返回所有需要进入提取阶段的单元 (python + xml + csv)，按相对路径有序
func (r *Result) Units() []Unit {
	units := make([]Unit, 0, len(r.Python)+len(r.XML)+len(r.AccessCSV))
	units = append(units, r.Python...)
	units = append(units, r.XML...)
	units = append(units, r.AccessCSV...)
	sort.Slice(units, func(i, j int) bool { return units[i].RelPath < units[j].RelPath })
	return units
}

var manifestNames = []string{"__manifest__.py", "__openerp__.py"}

// Scan 遍历模块目录树并分类所有文件。
// 根目录缺少清单文件时返回 ErrNotAnOdooModule；根目录不可读为致命错误。
func Scan(root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("module root is not readable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("module root %s is not a directory", absRoot)
	}

	result := &Result{Root: absRoot}
	for _, name := range manifestNames {
		candidate := filepath.Join(absRoot, name)
		if _, err := os.Stat(candidate); err == nil {
			result.ManifestPath = candidate
			break
		}
	}
	if result.ManifestPath == "" {
		return nil, ErrNotAnOdooModule
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// 忽略隐藏目录；模块根自身除外 (根目录名可以以 . 开头)
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)
		unit := Unit{Path: path, RelPath: filepath.ToSlash(relPath), Class: classify(path, result.ManifestPath)}
		unit.Purpose = guessPurpose(unit.RelPath)

		switch unit.Class {
		case ClassPython:
			result.Python = append(result.Python, unit)
		case ClassXML:
			result.XML = append(result.XML, unit)
		case ClassAccessCSV:
			result.AccessCSV = append(result.AccessCSV, unit)
		case ClassManifest:
			// 清单单独处理，不进提取池
		default:
			result.Unrecognized = append(result.Unrecognized, unit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// classify 按扩展名分类，与目录命名惯例无关
func classify(path, manifestPath string) FileClass {
	if path == manifestPath {
		return ClassManifest
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return ClassPython
	case ".xml":
		return ClassXML
	case ".csv":
		// Odoo 的访问清单约定命名 ir.model.access.csv；其他 CSV 同样走安全解析，
		// 解析不出权限列时会降级为 ParseIssue
		return ClassAccessCSV
	default:
		return ClassUnrecognized
	}
}

func guessPurpose(relPath string) Purpose {
	parts := strings.Split(relPath, "/")
	if len(parts) < 2 {
		return PurposeOther
	}
	switch parts[0] {
	case "models":
		return PurposeModels
	case "views":
		return PurposeViews
	case "security":
		return PurposeSecurity
	case "data":
		return PurposeData
	default:
		return PurposeOther
	}
}
