package regression

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var builtinFS embed.FS

// Template 回归测试模板, 内置库与数据库覆盖共用该结构
type Template struct {
	Module      string   `yaml:"module"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	RobotCode   string   `yaml:"robot_code"`
}

type moduleFile struct {
	Module    string     `yaml:"module"`
	Templates []Template `yaml:"templates"`
}

var (
	loadOnce sync.Once
	builtins map[string][]Template
	loadErr  error
)

// 扩展模块名归一到基础模块名, 模板按基础模块维护
var moduleAliases = map[string]string{
	"sale_management":    "sale",
	"purchase_stock":     "purchase",
	"stock_account":      "stock",
	"account_accountant": "account",
}

func load() {
	builtins = make(map[string][]Template)
	entries, err := fs.Glob(builtinFS, "templates/*.yaml")
	if err != nil {
		loadErr = fmt.Errorf("枚举内置回归模板失败: %w", err)
		return
	}
	sort.Strings(entries)

	for _, entry := range entries {
		data, err := builtinFS.ReadFile(entry)
		if err != nil {
			loadErr = fmt.Errorf("读取内置回归模板 %s 失败: %w", entry, err)
			return
		}
		var file moduleFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			loadErr = fmt.Errorf("解析内置回归模板 %s 失败: %w", entry, err)
			return
		}
		for i := range file.Templates {
			if file.Templates[i].Module == "" {
				file.Templates[i].Module = file.Module
			}
		}
		builtins[file.Module] = append(builtins[file.Module], file.Templates...)
	}
}

// Builtin 返回模块的内置模板, 无模板返回空切片
func Builtin(module string) ([]Template, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	return builtins[module], nil
}

// BuiltinModules 返回有内置模板的模块名, 升序
func BuiltinModules() ([]string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	modules := make([]string, 0, len(builtins))
	for m := range builtins {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules, nil
}

// ModuleAlias 将扩展模块名归一到基础模块名
func ModuleAlias(name string) string {
	if base, ok := moduleAliases[name]; ok {
		return base
	}
	return name
}

// Instantiate 替换脚本中的 ${KEY} 占位符
// 未出现在 params 中的占位符原样保留, 交给Robot运行期变量
func Instantiate(code string, params map[string]string) string {
	if len(params) == 0 {
		return code
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(code)
}
