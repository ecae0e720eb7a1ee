package generator

import (
	"fmt"
	"strings"

	"qa-platform/internal/analyzer"
)

// DefaultPromptBudget 提示词默认长度预算(字符)
const DefaultPromptBudget = 24000

// Context 一次生成调用的输入
type Context struct {
	SpecName        string
	Specification   string
	Preconditions   string
	ExpectedResults string
	ModuleName      string
	Model           *analyzer.ModelFacts
	Views           []analyzer.ViewFacts
	Options         Options
	PromptBudget    int
}

const promptHeader = `You are an expert QA automation engineer specializing in Robot Framework test automation for ERP web applications.

Your task is to generate Robot Framework test cases based on the following inputs.
`

const promptRules = `
## REQUIREMENTS

1. Use *** Settings ***, *** Variables ***, *** Test Cases ***, *** Keywords *** sections.
2. Use meaningful test case names with TC prefix (e.g. TC001_Create_Invoice).
3. Use proper XPath locators for form fields: //div[@name='field_name']//input
4. Use explicit wait strategies before interacting with elements.
5. Assign every test case a category: crud, validation, workflow, security or negative.
6. Make tests independent and self-contained.

## OUTPUT FORMAT

Return ONLY a JSON object in a fenced block:

` + "```json" + `
{
    "test_cases": [
        {
            "name": "TC001_Test_Case_Name",
            "description": "What this test verifies",
            "category": "crud",
            "tags": "smoke, crud",
            "robot_code": "*** Test Cases ***\n...",
            "steps": [
                {"name": "Open form", "action": "Navigate to the form view", "expected": "Form is displayed"}
            ]
        }
    ]
}
` + "```" + `
`

// BuildPrompt 构造生成提示词, 超出预算时逐级压缩明细, 保证所有段落标题保留
func BuildPrompt(genCtx Context) string {
	budget := genCtx.PromptBudget
	if budget <= 0 {
		budget = DefaultPromptBudget
	}

	// 逐级压缩: 全量明细 → 压缩明细 → 硬截断
	for _, detail := range []int{10, 5, 2} {
		prompt := renderPrompt(genCtx, detail)
		if len(prompt) <= budget {
			return prompt
		}
	}

	prompt := renderPrompt(genCtx, 2)
	if len(prompt) > budget {
		// 截断只发生在事实明细段, 指令与输出格式段始终完整
		head := prompt[:budget-len(promptRules)-len("\n... (truncated)\n")]
		prompt = head + "\n... (truncated)\n" + promptRules
	}
	return prompt
}

// renderPrompt 渲染提示词, detail 控制每类明细的条数上限
func renderPrompt(genCtx Context, detail int) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)

	if genCtx.Specification != "" {
		sb.WriteString("\n## SPECIFICATION\n\n")
		fmt.Fprintf(&sb, "**Name:** %s\n\n", genCtx.SpecName)
		fmt.Fprintf(&sb, "**Functional Specification:**\n%s\n", genCtx.Specification)
		if genCtx.Preconditions != "" {
			fmt.Fprintf(&sb, "\n**Preconditions:**\n%s\n", genCtx.Preconditions)
		}
		if genCtx.ExpectedResults != "" {
			fmt.Fprintf(&sb, "\n**Expected Results:**\n%s\n", genCtx.ExpectedResults)
		}
	}

	if genCtx.ModuleName != "" {
		fmt.Fprintf(&sb, "\n## MODULE\n\n**Module:** %s\n", genCtx.ModuleName)
	}

	if genCtx.Model != nil {
		writeModelSection(&sb, genCtx.Model, detail)
	}
	if len(genCtx.Views) > 0 {
		writeViewsSection(&sb, genCtx.Views, detail)
	}

	writeOptionsSection(&sb, genCtx.Options)
	sb.WriteString(promptRules)
	return sb.String()
}

func writeModelSection(sb *strings.Builder, model *analyzer.ModelFacts, detail int) {
	fmt.Fprintf(sb, "\n## MODEL: %s\n", model.Name)
	if model.Description != "" {
		fmt.Fprintf(sb, "%s\n", model.Description)
	}

	if required := model.RequiredFields(); len(required) > 0 {
		sb.WriteString("\n**Required Fields:**\n")
		for _, f := range capFields(required, detail) {
			fmt.Fprintf(sb, "- `%s` (%s) %s\n", f.Name, f.Type, f.Label)
		}
	}

	relational := make([]analyzer.FieldFact, 0)
	selections := make([]analyzer.FieldFact, 0)
	for _, f := range model.Fields {
		if f.Relation != "" {
			relational = append(relational, f)
		}
		if len(f.Selection) > 0 {
			selections = append(selections, f)
		}
	}
	if len(relational) > 0 {
		sb.WriteString("\n**Relational Fields:**\n")
		for _, f := range capFields(relational, detail) {
			fmt.Fprintf(sb, "- `%s` (%s → %s)\n", f.Name, f.Type, f.Relation)
		}
	}
	if len(selections) > 0 {
		sb.WriteString("\n**Selection Fields:**\n")
		for _, f := range capFields(selections, detail) {
			fmt.Fprintf(sb, "- `%s`: [%s]\n", f.Name, strings.Join(f.Selection, ", "))
		}
	}

	actions := make([]analyzer.MethodFact, 0)
	for _, m := range model.Methods {
		if m.IsAction {
			actions = append(actions, m)
		}
	}
	if len(actions) > 0 {
		sb.WriteString("\n**Action Methods:**\n")
		for i, m := range actions {
			if i >= detail {
				break
			}
			fmt.Fprintf(sb, "- `%s()`: %s\n  - Locator: `//button[@name='%s']`\n", m.Name, m.Doc, m.Name)
		}
	}

	if len(model.Constraints) > 0 {
		sb.WriteString("\n**Validation Constraints:**\n")
		for i, c := range model.Constraints {
			if i >= detail {
				break
			}
			fmt.Fprintf(sb, "- %s on `%s`", c.Name, strings.Join(c.Fields, ", "))
			if c.Message != "" {
				fmt.Fprintf(sb, ` → error "%s"`, c.Message)
			}
			sb.WriteString("\n")
		}
	}

	if len(model.ErrorMessages) > 0 {
		sb.WriteString("\n**Possible Errors:**\n")
		for i, e := range model.ErrorMessages {
			if i >= detail {
				break
			}
			fmt.Fprintf(sb, "- %s in `%s`: \"%s\"\n", e.Type, e.Method, e.Message)
		}
	}

	if len(model.Workflows) > 0 {
		sb.WriteString("\n**Workflow States:**\n")
		for _, w := range model.Workflows {
			fmt.Fprintf(sb, "- `%s`: %s\n", w.Field, strings.Join(w.States, " → "))
		}
	}
}

func writeViewsSection(sb *strings.Builder, views []analyzer.ViewFacts, detail int) {
	sb.WriteString("\n## VIEWS\n")
	for _, v := range views {
		fmt.Fprintf(sb, "\n### %s\n", v.File)
		if len(v.Fields) > 0 {
			fields := v.Fields
			if len(fields) > detail*2 {
				fields = fields[:detail*2]
			}
			fmt.Fprintf(sb, "- Fields: %s\n", strings.Join(fields, ", "))
		}
		for i, b := range v.Buttons {
			if i >= detail {
				break
			}
			fmt.Fprintf(sb, "- Button `%s` (%s)", b.Name, b.Label)
			if b.States != "" {
				fmt.Fprintf(sb, " available in states: %s", b.States)
			}
			sb.WriteString("\n")
		}
	}
}

func writeOptionsSection(sb *strings.Builder, opts Options) {
	sb.WriteString("\n## SCOPE\n\nGenerate test cases for the following categories only:\n")
	for _, c := range []struct {
		name    string
		enabled bool
	}{
		{"crud", opts.IncludeCRUD},
		{"validation", opts.IncludeValidation},
		{"workflow", opts.IncludeWorkflow},
		{"security", opts.IncludeSecurity},
		{"negative", opts.IncludeNegative},
	} {
		if c.enabled {
			fmt.Fprintf(sb, "- %s\n", c.name)
		}
	}
	max := opts.MaxTests
	if max <= 0 {
		max = DefaultOptions().MaxTests
	}
	fmt.Fprintf(sb, "\nGenerate at most %d test cases.\n", max)
}

// BuildImprovePrompt 构造失败用例修复提示词
func BuildImprovePrompt(name, robotCode, errorMessage string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert QA automation engineer. A Robot Framework test has failed.\n\n")
	fmt.Fprintf(&sb, "**Test Case Name:** %s\n\n", name)
	fmt.Fprintf(&sb, "**Original Robot Code:**\n```robot\n%s\n```\n\n", robotCode)
	fmt.Fprintf(&sb, "**Error Message:**\n%s\n\n", errorMessage)
	sb.WriteString(`Please analyze the error and provide a corrected version of the test.
Common issues to check:
- Incorrect XPath locators
- Missing wait statements
- Wrong element interactions
- Timing issues

Return ONLY the corrected Robot Framework code, no explanation needed.
`)
	return sb.String()
}

func capFields(fields []analyzer.FieldFact, max int) []analyzer.FieldFact {
	if len(fields) <= max {
		return fields
	}
	return fields[:max]
}
