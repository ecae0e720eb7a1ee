package analyzer

import (
	"regexp"
	"strings"
)

// 模型源码解析使用行级扫描, 解析失败的片段记录告警后跳过, 永不中断整个文件
var (
	classRe      = regexp.MustCompile(`^class\s+\w+\s*\(`)
	nameRe       = regexp.MustCompile(`^\s+_name\s*=\s*['"]([\w.]+)['"]`)
	inheritRe    = regexp.MustCompile(`^\s+_inherit\s*=\s*(?:\[)?\s*['"]([\w.]+)['"]`)
	descRe       = regexp.MustCompile(`^\s+_description\s*=\s*['"](.+?)['"]`)
	fieldStartRe = regexp.MustCompile(`^\s+(\w+)\s*=\s*fields\.(\w+)\(`)
	decoratorRe  = regexp.MustCompile(`^\s+@api\.(constrains|onchange|depends)\s*\((.*)\)`)
	defRe        = regexp.MustCompile(`^\s+def\s+(\w+)\s*\(`)
	raiseRe      = regexp.MustCompile(`raise\s+(UserError|ValidationError|Warning)\s*\(`)
	quotedRe     = regexp.MustCompile(`['"]((?:[^'"\\]|\\.)*?)['"]`)
	sqlConsRe    = regexp.MustCompile(`^\s+_sql_constraints\s*=`)
	tupleRe      = regexp.MustCompile(`\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]\s*\)`)
	kwBoolRe     = regexp.MustCompile(`(\w+)\s*=\s*(True|False)`)
	kwStrRe      = regexp.MustCompile(`(\w+)\s*=\s*['"]([^'"]*)['"]`)
	selPairRe    = regexp.MustCompile(`\(\s*['"]([^'"]+)['"]\s*,`)
)

// 关系型字段类型
var relationalTypes = map[string]bool{
	"Many2one":  true,
	"One2many":  true,
	"Many2many": true,
}

// 生命周期钩子
var lifecycleHooks = map[string]bool{
	"create": true,
	"write":  true,
	"unlink": true,
}

// ParseModelSource 解析单个模型源码文件, 返回文件内声明的模型事实与告警
func ParseModelSource(content, filename string) ([]ModelFacts, []string) {
	var (
		models   []ModelFacts
		warnings []string
		current  *ModelFacts

		pendingDecorators []MethodFact // 装饰器暂存, 命中 def 时合并
		currentMethod     string
	)

	flush := func() {
		if current != nil && current.Name != "" {
			models = append(models, *current)
		}
		current = nil
	}

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if classRe.MatchString(line) {
			flush()
			current = &ModelFacts{}
			pendingDecorators = nil
			currentMethod = ""
			continue
		}
		if current == nil {
			continue
		}

		if m := nameRe.FindStringSubmatch(line); m != nil {
			current.Name = m[1]
			continue
		}
		if m := inheritRe.FindStringSubmatch(line); m != nil {
			current.Inherit = m[1]
			if current.Name == "" {
				current.Name = m[1]
			}
			continue
		}
		if m := descRe.FindStringSubmatch(line); m != nil {
			current.Description = m[1]
			continue
		}

		if sqlConsRe.MatchString(line) {
			block, consumed := collectBracketBlock(lines, i, '[', ']')
			i += consumed
			for _, t := range tupleRe.FindAllStringSubmatch(block, -1) {
				current.Constraints = append(current.Constraints, ConstraintFact{
					Kind:    "sql",
					Name:    t[1],
					Message: t[3],
				})
			}
			continue
		}

		if m := fieldStartRe.FindStringSubmatch(line); m != nil {
			args, consumed := collectCallArgs(lines, i)
			i += consumed
			fact, warn := parseField(m[1], m[2], args)
			if warn != "" {
				warnings = append(warnings, filename+": "+warn)
			}
			current.Fields = append(current.Fields, fact)
			// state 选择字段视为工作流
			if fact.Type == "selection" && fact.Name == "state" && len(fact.Selection) > 0 {
				current.Workflows = append(current.Workflows, WorkflowFact{
					Field:  fact.Name,
					States: fact.Selection,
				})
			}
			continue
		}

		if m := decoratorRe.FindStringSubmatch(line); m != nil {
			dec := MethodFact{
				IsConstrain: m[1] == "constrains",
				IsOnchange:  m[1] == "onchange",
				IsCompute:   m[1] == "depends",
			}
			for _, q := range quotedRe.FindAllStringSubmatch(m[2], -1) {
				dec.Fields = append(dec.Fields, q[1])
			}
			pendingDecorators = append(pendingDecorators, dec)
			continue
		}

		if m := defRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			currentMethod = name
			if strings.HasPrefix(name, "__") {
				pendingDecorators = nil
				continue
			}
			if lifecycleHooks[name] {
				current.LifecycleHooks = append(current.LifecycleHooks, name)
			}
			method := MethodFact{
				Name:     name,
				IsAction: strings.HasPrefix(name, "action_") || strings.HasPrefix(name, "button_"),
				Doc:      extractDocstring(lines, i+1),
			}
			for _, dec := range pendingDecorators {
				method.IsConstrain = method.IsConstrain || dec.IsConstrain
				method.IsOnchange = method.IsOnchange || dec.IsOnchange
				method.IsCompute = method.IsCompute || dec.IsCompute
				method.Fields = append(method.Fields, dec.Fields...)
			}
			pendingDecorators = nil
			current.Methods = append(current.Methods, method)
			if method.IsConstrain {
				current.Constraints = append(current.Constraints, ConstraintFact{
					Kind:   "code",
					Name:   name,
					Fields: method.Fields,
				})
			}
			continue
		}

		if m := raiseRe.FindStringSubmatch(line); m != nil {
			msg := extractRaiseMessage(line)
			if msg != "" {
				current.ErrorMessages = append(current.ErrorMessages, ErrorMessageFact{
					Method:  currentMethod,
					Type:    m[1],
					Message: msg,
				})
				// 约束方法内抛出的消息回填到约束
				for j := len(current.Constraints) - 1; j >= 0; j-- {
					c := &current.Constraints[j]
					if c.Kind == "code" && c.Name == currentMethod && c.Message == "" {
						c.Message = msg
						break
					}
				}
			}
		}
	}
	flush()

	return models, warnings
}

// parseField 解析字段定义参数
func parseField(name, fieldType, args string) (FieldFact, string) {
	fact := FieldFact{
		Name: name,
		Type: strings.ToLower(fieldType),
	}

	// 去掉赋值前缀, 只保留调用参数部分
	if idx := strings.Index(args, "("); idx >= 0 {
		args = args[idx+1:]
	}

	for _, kv := range kwBoolRe.FindAllStringSubmatch(args, -1) {
		val := kv[2] == "True"
		switch kv[1] {
		case "required":
			fact.Required = val
		case "readonly":
			fact.Readonly = val
		}
	}

	for _, kv := range kwStrRe.FindAllStringSubmatch(args, -1) {
		switch kv[1] {
		case "string":
			fact.Label = kv[2]
		case "compute":
			fact.Computed = true
			fact.Compute = kv[2]
		case "comodel_name":
			fact.Relation = kv[2]
		}
	}

	if relationalTypes[fieldType] && fact.Relation == "" {
		// 关系型字段的第一个位置参数即目标模型
		if m := quotedRe.FindStringSubmatch(args); m != nil && !strings.Contains(args[:strings.Index(args, m[0])], "=") {
			fact.Relation = m[1]
		}
		if fact.Relation == "" {
			return fact, "relational field " + name + " has no resolvable comodel"
		}
	}

	if fieldType == "Selection" {
		for _, p := range selPairRe.FindAllStringSubmatch(args, -1) {
			fact.Selection = append(fact.Selection, p[1])
		}
	}

	return fact, ""
}

// collectCallArgs 从起始行收集括号配平前的调用参数
func collectCallArgs(lines []string, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '(':
				depth++
				opened = true
			case ')':
				depth--
			}
		}
		if opened {
			sb.WriteString(lines[i])
			sb.WriteString("\n")
		}
		if opened && depth <= 0 {
			return sb.String(), i - start
		}
	}
	return sb.String(), len(lines) - 1 - start
}

// collectBracketBlock 收集括号配平的多行块
func collectBracketBlock(lines []string, start int, open, close rune) (string, int) {
	var sb strings.Builder
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case open:
				depth++
				opened = true
			case close:
				depth--
			}
		}
		sb.WriteString(lines[i])
		sb.WriteString("\n")
		if opened && depth <= 0 {
			return sb.String(), i - start
		}
	}
	return sb.String(), len(lines) - 1 - start
}

// extractDocstring 提取 def 之后的首行文档字符串
func extractDocstring(lines []string, start int) string {
	if start >= len(lines) {
		return ""
	}
	line := strings.TrimSpace(lines[start])
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(line, q) {
			body := strings.TrimPrefix(line, q)
			if idx := strings.Index(body, q); idx >= 0 {
				return strings.TrimSpace(body[:idx])
			}
			return strings.TrimSpace(body)
		}
	}
	return ""
}

// extractRaiseMessage 提取 raise 语句中的错误文案, 支持 _() 包裹
func extractRaiseMessage(line string) string {
	idx := strings.Index(line, "(")
	if idx < 0 {
		return ""
	}
	if m := quotedRe.FindStringSubmatch(line[idx:]); m != nil {
		return m[1]
	}
	return ""
}
