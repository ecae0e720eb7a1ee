package generator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qa-platform/internal/analyzer"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

func TestParseDraftFencedBlock(t *testing.T) {
	response := "Here are the tests:\n```json\n" + `{
    "test_cases": [
        {
            "name": "TC001_Create_Partner",
            "description": "Creates a partner",
            "category": "crud",
            "tags": "smoke, crud",
            "robot_code": "*** Test Cases ***\nTC001_Create_Partner\n    Log    ok",
            "steps": [{"name": "Open", "action": "Open form", "expected": "Form shown"}]
        }
    ]
}` + "\n```\nDone."

	cases, err := ParseDraft(response)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "TC001_Create_Partner", cases[0].Name)
	assert.Equal(t, "crud", cases[0].Category)
	assert.Equal(t, []string{"smoke", "crud"}, cases[0].TagList())
	assert.True(t, strings.HasPrefix(cases[0].RobotCode, "*** Test Cases ***"))
	require.Len(t, cases[0].Steps, 1)
}

func TestParseDraftRawObject(t *testing.T) {
	response := `{"test_cases": [{"name": "TC001", "robot_code": "*** Test Cases ***\nTC001\n    Log    x"}]}`

	cases, err := ParseDraft(response)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	// 未指定类别时回落到 functional
	assert.Equal(t, "functional", cases[0].Category)
}

func TestParseDraftRejectsProse(t *testing.T) {
	// 非JSON响应不做兜底, 整体失败
	_, err := ParseDraft("I could not generate any tests, sorry.")
	require.Error(t, err)
	appErr, ok := err.(*pkgErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, pkgErrors.CodeParseError, appErr.Code)
}

func TestParseDraftRejectsBrokenJSON(t *testing.T) {
	_, err := ParseDraft("```json\n{\"test_cases\": [{\"name\": \"TC001\",]}\n```")
	require.Error(t, err)
	assert.Equal(t, pkgErrors.CodeParseError, err.(*pkgErrors.AppError).Code)
}

func TestParseDraftRejectsEmptyAndIncomplete(t *testing.T) {
	_, err := ParseDraft("```json\n{\"test_cases\": []}\n```")
	require.Error(t, err)

	_, err = ParseDraft("```json\n{\"test_cases\": [{\"name\": \"TC001\"}]}\n```")
	require.Error(t, err) // 缺 robot_code
}

func makeDraft(category string, n int) []DraftCase {
	out := make([]DraftCase, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, DraftCase{
			Name:      fmt.Sprintf("TC_%s_%d", category, i),
			Category:  category,
			RobotCode: "*** Test Cases ***",
		})
	}
	return out
}

func TestApplyCapsFiltersDisabledCategories(t *testing.T) {
	cases := append(makeDraft(constants.CategoryCRUD, 2), makeDraft(constants.CategorySecurity, 2)...)

	opts := DefaultOptions()
	opts.IncludeSecurity = false

	kept := ApplyCaps(cases, opts)
	require.Len(t, kept, 2)
	for _, tc := range kept {
		assert.Equal(t, constants.CategoryCRUD, tc.Category)
	}
}

func TestApplyCapsTruncatesNegativeThenSecurity(t *testing.T) {
	cases := makeDraft(constants.CategoryCRUD, 4)
	cases = append(cases, makeDraft(constants.CategorySecurity, 3)...)
	cases = append(cases, makeDraft(constants.CategoryNegative, 3)...)

	opts := DefaultOptions()
	opts.MaxTests = 6

	kept := ApplyCaps(cases, opts)
	require.Len(t, kept, 6)

	counts := map[string]int{}
	for _, tc := range kept {
		counts[tc.Category]++
	}
	// negative 先被裁光, security 再裁1条
	assert.Equal(t, 4, counts[constants.CategoryCRUD])
	assert.Equal(t, 2, counts[constants.CategorySecurity])
	assert.Equal(t, 0, counts[constants.CategoryNegative])
}

func TestApplyCapsKeepsOrderStable(t *testing.T) {
	cases := append(makeDraft(constants.CategoryCRUD, 3), makeDraft(constants.CategoryWorkflow, 2)...)

	kept := ApplyCaps(cases, DefaultOptions())
	require.Len(t, kept, 5)
	assert.Equal(t, "TC_crud_0", kept[0].Name)
	assert.Equal(t, "TC_workflow_1", kept[4].Name)
}

func TestBuildPromptContainsFactsAndFormat(t *testing.T) {
	model := &analyzer.ModelFacts{
		Name: "sale.subscription",
		Fields: []analyzer.FieldFact{
			{Name: "name", Type: "char", Required: true},
			{Name: "partner_id", Type: "many2one", Relation: "res.partner", Required: true},
			{Name: "state", Type: "selection", Selection: []string{"draft", "active"}},
		},
		Methods: []analyzer.MethodFact{
			{Name: "action_activate", IsAction: true, Doc: "Activate the subscription"},
		},
		Constraints: []analyzer.ConstraintFact{
			{Kind: "code", Name: "_check_amount", Fields: []string{"amount"}, Message: "Amount cannot be negative"},
		},
		Workflows: []analyzer.WorkflowFact{{Field: "state", States: []string{"draft", "active"}}},
	}

	prompt := BuildPrompt(Context{
		ModuleName: "sale_subscription",
		Model:      model,
		Options:    DefaultOptions(),
	})

	assert.Contains(t, prompt, "sale.subscription")
	assert.Contains(t, prompt, "partner_id")
	assert.Contains(t, prompt, "Amount cannot be negative")
	assert.Contains(t, prompt, "action_activate")
	assert.Contains(t, prompt, "```json")
	assert.Contains(t, prompt, "draft → active")
}

func TestBuildPromptRespectsBudget(t *testing.T) {
	// 构造超大模型事实
	model := &analyzer.ModelFacts{Name: "big.model"}
	for i := 0; i < 400; i++ {
		model.Fields = append(model.Fields, analyzer.FieldFact{
			Name:     fmt.Sprintf("field_with_a_rather_long_name_%04d", i),
			Type:     "char",
			Required: true,
			Label:    strings.Repeat("x", 60),
		})
	}

	budget := 8000
	prompt := BuildPrompt(Context{Model: model, Options: DefaultOptions(), PromptBudget: budget})

	assert.LessOrEqual(t, len(prompt), budget)
	// 输出格式段永远保留
	assert.Contains(t, prompt, "test_cases")

	// 相同输入产出相同提示词
	assert.Equal(t, prompt, BuildPrompt(Context{Model: model, Options: DefaultOptions(), PromptBudget: budget}))
}
