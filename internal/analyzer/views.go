package analyzer

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseViewMarkup 解析视图定义, 容错解析, 残缺标记不会中断分析
func ParseViewMarkup(content, filename string) (ViewFacts, []string) {
	facts := ViewFacts{File: filename}
	var warnings []string

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse 几乎不报错, 报错时整个文件按告警跳过
		warnings = append(warnings, filename+": unparseable view markup: "+err.Error())
		return facts, warnings
	}

	currentModel := ""
	seenFields := make(map[string]bool)
	seenButtons := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "field":
				name := attr(n, "name")
				switch {
				case name == "":
					warnings = append(warnings, filename+": field element without name attribute")
				case name == "model" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode:
					// <field name="model">crm.lead</field> 记录视图绑定的模型
					currentModel = strings.TrimSpace(n.FirstChild.Data)
				default:
					if !seenFields[name] {
						seenFields[name] = true
						facts.Fields = append(facts.Fields, name)
					}
					if isRequiredMarker(attr(n, "required")) {
						facts.RequiredFields = append(facts.RequiredFields, name)
					}
					if attr(n, "widget") == "statusbar" {
						states := splitCSV(attr(n, "statusbar_visible"))
						if len(states) > 0 {
							facts.Workflows = append(facts.Workflows, WorkflowFact{
								Field:  name,
								States: states,
							})
						}
					}
				}
			case "button":
				name := attr(n, "name")
				if name == "" {
					warnings = append(warnings, filename+": button element without name attribute")
				} else if !seenButtons[name] {
					seenButtons[name] = true
					btnType := attr(n, "type")
					if btnType == "" {
						btnType = "object"
					}
					facts.Buttons = append(facts.Buttons, ViewButtonFact{
						Name:   name,
						Label:  attr(n, "string"),
						Type:   btnType,
						States: attr(n, "states"),
						Model:  currentModel,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return facts, warnings
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isRequiredMarker 判断 required 标记是否生效
func isRequiredMarker(value string) bool {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "1", "true", "required":
		return true
	}
	return false
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
