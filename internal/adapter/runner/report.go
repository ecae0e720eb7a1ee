package runner

import (
	"encoding/xml"
	"strings"
	"time"

	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// robot output.xml 的时间格式
const robotTimeLayout = "20060102 15:04:05.000"

type xmlStatus struct {
	Status    string `xml:"status,attr"`
	StartTime string `xml:"starttime,attr"`
	EndTime   string `xml:"endtime,attr"`
	Elapsed   string `xml:"elapsed,attr"`
	Text      string `xml:",chardata"`
}

type xmlTest struct {
	Name   string    `xml:"name,attr"`
	Status xmlStatus `xml:"status"`
}

type xmlSuite struct {
	Name   string     `xml:"name,attr"`
	Suites []xmlSuite `xml:"suite"`
	Tests  []xmlTest  `xml:"test"`
}

type xmlRobot struct {
	Generated string   `xml:"generated,attr"`
	Suite     xmlSuite `xml:"suite"`
}

// ParseOutputXML 解析 Robot Framework 的 output.xml 为用例结果
// 套件可嵌套, 结果按文档顺序展开
func ParseOutputXML(data []byte) ([]CaseResult, error) {
	var doc xmlRobot
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "output.xml解析失败", err)
	}

	results := make([]CaseResult, 0)
	collectSuite(&doc.Suite, &results)
	if len(results) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeDispatchError, "output.xml中不包含任何用例结果")
	}
	return results, nil
}

func collectSuite(suite *xmlSuite, out *[]CaseResult) {
	for _, t := range suite.Tests {
		*out = append(*out, CaseResult{
			Name:     t.Name,
			Status:   mapRobotStatus(t.Status.Status),
			Duration: statusDuration(t.Status),
			Message:  strings.TrimSpace(t.Status.Text),
		})
	}
	for i := range suite.Suites {
		collectSuite(&suite.Suites[i], out)
	}
}

func mapRobotStatus(status string) string {
	switch strings.ToUpper(status) {
	case "PASS":
		return constants.ResultStatusPass
	case "FAIL":
		return constants.ResultStatusFail
	case "SKIP", "NOT RUN":
		return constants.ResultStatusSkip
	default:
		return constants.ResultStatusError
	}
}

func statusDuration(st xmlStatus) float64 {
	// RF 5+ 直接给出 elapsed 秒数, 旧版本从起止时间计算
	if st.Elapsed != "" {
		if d, err := time.ParseDuration(st.Elapsed + "s"); err == nil {
			return d.Seconds()
		}
	}
	start, err1 := time.Parse(robotTimeLayout, st.StartTime)
	end, err2 := time.Parse(robotTimeLayout, st.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end.Sub(start).Seconds()
}
