package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	pkgErrors "qa-platform/pkg/errors"
)

// DraftStep 生成草稿中的步骤
type DraftStep struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Expected string `json:"expected"`
}

// DraftCase 生成草稿中的单条用例
type DraftCase struct {
	Name        string      `json:"name"`
	TestID      string      `json:"test_id"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Tags        string      `json:"tags"` // 逗号分隔
	RobotCode   string      `json:"robot_code"`
	Steps       []DraftStep `json:"steps"`
}

// TagList 返回拆分后的标签
func (d *DraftCase) TagList() []string {
	parts := strings.Split(d.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type draftPayload struct {
	TestCases []DraftCase `json:"test_cases"`
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	rawJSONRe    = regexp.MustCompile(`(?s)\{.*"test_cases".*\}`)
)

// ParseDraft 解析AI响应为用例草稿
// 响应必须是围栏JSON块或含 test_cases 的裸JSON对象; 解析失败即失败, 不做降级兜底,
// 也绝不产出部分结果
func ParseDraft(response string) ([]DraftCase, error) {
	jsonStr := ""
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		jsonStr = m[1]
	} else if m := rawJSONRe.FindString(response); m != "" {
		jsonStr = m
	} else {
		return nil, pkgErrors.Wrap(pkgErrors.CodeParseError, "AI响应格式无效",
			errSnippet(response))
	}

	var payload draftPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeParseError, "AI响应JSON解析失败", err)
	}
	if len(payload.TestCases) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeParseError, "AI响应中不包含任何用例")
	}

	cases := make([]DraftCase, 0, len(payload.TestCases))
	for _, tc := range payload.TestCases {
		if tc.Name == "" || tc.RobotCode == "" {
			return nil, pkgErrors.New(pkgErrors.CodeParseError, "AI响应用例缺少 name 或 robot_code")
		}
		tc.RobotCode = normalizeRobotCode(tc.RobotCode)
		if tc.Category == "" {
			tc.Category = "functional"
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// normalizeRobotCode 修复常见的二次转义
func normalizeRobotCode(code string) string {
	code = strings.ReplaceAll(code, `\n`, "\n")
	code = strings.ReplaceAll(code, `\t`, "    ")
	return code
}

type snippetError struct{ s string }

func (e snippetError) Error() string { return e.s }

func errSnippet(response string) error {
	s := strings.TrimSpace(response)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return snippetError{s: s}
}
