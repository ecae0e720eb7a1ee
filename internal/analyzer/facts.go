package analyzer

// FieldFact 字段事实
type FieldFact struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Label     string   `json:"label,omitempty"`
	Required  bool     `json:"required,omitempty"`
	Readonly  bool     `json:"readonly,omitempty"`
	Computed  bool     `json:"computed,omitempty"`
	Compute   string   `json:"compute,omitempty"`
	Relation  string   `json:"relation,omitempty"`
	Selection []string `json:"selection,omitempty"`
}

// ConstraintFact 校验约束(代码级或SQL级)
type ConstraintFact struct {
	Kind    string   `json:"kind"` // code/sql
	Name    string   `json:"name"`
	Fields  []string `json:"fields,omitempty"`
	Message string   `json:"message,omitempty"`
}

// MethodFact 方法事实
type MethodFact struct {
	Name        string   `json:"name"`
	Doc         string   `json:"doc,omitempty"`
	IsAction    bool     `json:"is_action,omitempty"`
	IsCompute   bool     `json:"is_compute,omitempty"`
	IsOnchange  bool     `json:"is_onchange,omitempty"`
	IsConstrain bool     `json:"is_constrain,omitempty"`
	Fields      []string `json:"fields,omitempty"` // 装饰器声明的字段
}

// ErrorMessageFact 代码中抛出的业务错误提示
type ErrorMessageFact struct {
	Method  string `json:"method"`
	Type    string `json:"type"` // UserError/ValidationError/Warning
	Message string `json:"message"`
}

// WorkflowFact 状态机事实
type WorkflowFact struct {
	Field  string   `json:"field"`
	States []string `json:"states"`
}

// ModelFacts 单个业务模型的全部事实
type ModelFacts struct {
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Inherit        string             `json:"inherit,omitempty"`
	Fields         []FieldFact        `json:"fields,omitempty"`
	Methods        []MethodFact       `json:"methods,omitempty"`
	Constraints    []ConstraintFact   `json:"constraints,omitempty"`
	ErrorMessages  []ErrorMessageFact `json:"error_messages,omitempty"`
	Workflows      []WorkflowFact     `json:"workflows,omitempty"`
	LifecycleHooks []string           `json:"lifecycle_hooks,omitempty"` // create/write/unlink 覆写
}

// HasWorkflow 是否包含状态机
func (m *ModelFacts) HasWorkflow() bool {
	return len(m.Workflows) > 0
}

// HasConstraints 是否包含校验约束
func (m *ModelFacts) HasConstraints() bool {
	return len(m.Constraints) > 0
}

// RequiredFields 必填字段列表
func (m *ModelFacts) RequiredFields() []FieldFact {
	out := make([]FieldFact, 0)
	for _, f := range m.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// ViewButtonFact 视图按钮
type ViewButtonFact struct {
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type,omitempty"`
	States string `json:"states,omitempty"`
	Model  string `json:"model,omitempty"`
}

// ViewFacts 视图事实
type ViewFacts struct {
	File           string           `json:"file"`
	Fields         []string         `json:"fields,omitempty"`
	RequiredFields []string         `json:"required_fields,omitempty"`
	Buttons        []ViewButtonFact `json:"buttons,omitempty"`
	Workflows      []WorkflowFact   `json:"workflows,omitempty"`
}

// ModuleFacts 模块级分析结果
type ModuleFacts struct {
	Module   string       `json:"module"`
	Models   []ModelFacts `json:"models"`
	Views    []ViewFacts  `json:"views"`
	Warnings []string     `json:"warnings,omitempty"`
}
