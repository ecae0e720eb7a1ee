package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ModuleInfo 仓库中发现的ERP模块
type ModuleInfo struct {
	Name        string
	DisplayName string
	Version     string
	Path        string // 相对仓库根目录
	Depends     []string
	ModelCount  int
	ViewCount   int
}

const manifestFile = "__manifest__.py"

var (
	manifestNameRe    = regexp.MustCompile(`['"]name['"]\s*:\s*['"]([^'"]+)['"]`)
	manifestVersionRe = regexp.MustCompile(`['"]version['"]\s*:\s*['"]([^'"]+)['"]`)
	manifestDependsRe = regexp.MustCompile(`['"]depends['"]\s*:\s*\[([^\]]*)\]`)
)

// 不进入的目录
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"static":       true,
	"vendor":       true,
	"__pycache__":  true,
}

// DiscoverModules 在仓库工作树中发现ERP模块, 返回结果按模块名排序
func DiscoverModules(repoPath string) ([]ModuleInfo, error) {
	var modules []ModuleInfo

	err := filepath.Walk(repoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && skipDirs[info.Name()] {
			return filepath.SkipDir
		}
		if info.IsDir() || info.Name() != manifestFile {
			return nil
		}

		moduleDir := filepath.Dir(path)
		rel, err := filepath.Rel(repoPath, moduleDir)
		if err != nil {
			return err
		}

		mod := ModuleInfo{
			Name: filepath.Base(moduleDir),
			Path: rel,
		}
		if content, err := os.ReadFile(path); err == nil {
			parseManifest(string(content), &mod)
		}
		mod.ModelCount = countFiles(filepath.Join(moduleDir, "models"), ".py")
		mod.ViewCount = countFiles(filepath.Join(moduleDir, "views"), ".xml")
		modules = append(modules, mod)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}

func parseManifest(content string, mod *ModuleInfo) {
	if m := manifestNameRe.FindStringSubmatch(content); m != nil {
		mod.DisplayName = m[1]
	}
	if m := manifestVersionRe.FindStringSubmatch(content); m != nil {
		mod.Version = m[1]
	}
	if m := manifestDependsRe.FindStringSubmatch(content); m != nil {
		for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
			mod.Depends = append(mod.Depends, q[1])
		}
	}
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) && !strings.HasPrefix(e.Name(), "__") {
			count++
		}
	}
	return count
}

// AnalyzeModule 对单个模块做静态分析
// 相同输入必然产出相同结果: 文件按名称排序, 事实按声明顺序输出
func AnalyzeModule(modulePath, moduleName string) (*ModuleFacts, error) {
	if _, err := os.Stat(modulePath); err != nil {
		return nil, fmt.Errorf("module path %s: %w", modulePath, err)
	}

	facts := &ModuleFacts{Module: moduleName}

	for _, file := range sortedFiles(filepath.Join(modulePath, "models"), ".py") {
		content, err := os.ReadFile(file)
		if err != nil {
			facts.Warnings = append(facts.Warnings, filepath.Base(file)+": "+err.Error())
			continue
		}
		models, warns := ParseModelSource(string(content), filepath.Base(file))
		facts.Models = append(facts.Models, models...)
		facts.Warnings = append(facts.Warnings, warns...)
	}

	for _, file := range sortedFiles(filepath.Join(modulePath, "views"), ".xml") {
		content, err := os.ReadFile(file)
		if err != nil {
			facts.Warnings = append(facts.Warnings, filepath.Base(file)+": "+err.Error())
			continue
		}
		view, warns := ParseViewMarkup(string(content), filepath.Base(file))
		facts.Views = append(facts.Views, view)
		facts.Warnings = append(facts.Warnings, warns...)
	}

	mergeViewFacts(facts)
	return facts, nil
}

// mergeViewFacts 将视图层事实回填到对应模型: 必填标记与按钮触发的方法
func mergeViewFacts(facts *ModuleFacts) {
	byName := make(map[string]*ModelFacts, len(facts.Models))
	for i := range facts.Models {
		byName[facts.Models[i].Name] = &facts.Models[i]
	}

	for _, view := range facts.Views {
		for _, btn := range view.Buttons {
			model, ok := byName[btn.Model]
			if !ok {
				continue
			}
			if !hasMethod(model, btn.Name) {
				model.Methods = append(model.Methods, MethodFact{
					Name:     btn.Name,
					Doc:      btn.Label,
					IsAction: true,
				})
			}
		}
		for _, required := range view.RequiredFields {
			for _, model := range byName {
				for i := range model.Fields {
					if model.Fields[i].Name == required {
						model.Fields[i].Required = true
					}
				}
			}
		}
	}
}

func hasMethod(model *ModelFacts, name string) bool {
	for _, m := range model.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// sortedFiles 列出目录下指定后缀的文件, 按名称排序
func sortedFiles(dir, ext string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) && !strings.HasPrefix(e.Name(), "__") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files
}
