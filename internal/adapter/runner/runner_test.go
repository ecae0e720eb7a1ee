package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qa-platform/pkg/constants"
)

const sampleOutputXML = `<?xml version="1.0" encoding="UTF-8"?>
<robot generated="20250810 09:30:00.000" generator="Robot 6.1.1">
<suite id="s1" name="Run 42">
<suite id="s1-s1" name="Sale Subscription">
<test id="s1-s1-t1" name="TC001_Create_Subscription">
<status status="PASS" starttime="20250810 09:30:01.000" endtime="20250810 09:30:04.500"></status>
</test>
<test id="s1-s1-t2" name="TC002_Missing_Partner_Rejected">
<status status="FAIL" starttime="20250810 09:30:05.000" endtime="20250810 09:30:06.000">Element not found: //div[@name='partner_id']//input</status>
</test>
</suite>
<test id="s1-t1" name="TC003_Smoke_Login">
<status status="SKIP" starttime="20250810 09:30:07.000" endtime="20250810 09:30:07.000">skipped by tag</status>
</test>
</suite>
</robot>`

func TestParseOutputXML(t *testing.T) {
	results, err := ParseOutputXML([]byte(sampleOutputXML))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "TC001_Create_Subscription", results[0].Name)
	assert.Equal(t, constants.ResultStatusPass, results[0].Status)
	assert.InDelta(t, 3.5, results[0].Duration, 0.001)

	assert.Equal(t, constants.ResultStatusFail, results[1].Status)
	assert.Contains(t, results[1].Message, "Element not found")

	assert.Equal(t, constants.ResultStatusSkip, results[2].Status)
}

func TestParseOutputXMLEmpty(t *testing.T) {
	_, err := ParseOutputXML([]byte(`<robot><suite name="empty"></suite></robot>`))
	require.Error(t, err)

	_, err = ParseOutputXML([]byte("not xml at all <<<"))
	require.Error(t, err)
}

func TestBuildRobotArgs(t *testing.T) {
	req := &Request{
		RunID: 7,
		Variables: map[string]string{
			"BASE_URL": "http://erp.local:8069",
			"USERNAME": "admin",
		},
		IncludeTags: []string{"smoke"},
		ExcludeTags: []string{"wip"},
		Headless:    true,
	}

	args := buildRobotArgs(req, "/tmp/out")
	joined := ""
	for _, a := range args {
		joined += a + " "
	}

	assert.Contains(t, joined, "--outputdir /tmp/out")
	// 变量按键名排序, 输出稳定
	assert.Contains(t, joined, "--variable BASE_URL:http://erp.local:8069 --variable BROWSER:headlesschrome --variable USERNAME:admin")
	assert.Contains(t, joined, "--include smoke")
	assert.Contains(t, joined, "--exclude wip")
}

func TestBuildRobotArgsKeepsExplicitBrowser(t *testing.T) {
	req := &Request{
		RunID:     8,
		Variables: map[string]string{"BROWSER": "firefox"},
		Headless:  true,
	}

	args := buildRobotArgs(req, "/tmp/out")
	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	assert.Contains(t, joined, "--variable BROWSER:firefox")
	assert.NotContains(t, joined, "headlesschrome")
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'abc'", shellQuote("abc"))
	assert.Equal(t, `'a'\''b'`, shellQuote("a'b"))
}

func TestConsoleStatsRegex(t *testing.T) {
	m := consoleStatsRe.FindStringSubmatch("Output: ...\n12 tests, 10 passed, 2 failed\nDone")
	require.NotNil(t, m)
	assert.Equal(t, []string{"12 tests, 10 passed, 2 failed", "12", "10", "2"}, m)

	m = consoleStatsRe.FindStringSubmatch("1 test, 1 passed, 0 failed")
	require.NotNil(t, m)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "suite_42.robot", sanitizeName("suite_42.robot"))
	assert.Equal(t, "a_b_c.robot", sanitizeName("a b/c.robot"))
}
