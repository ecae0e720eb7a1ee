package model

import "time"

// TestSpec 自然语言测试规格, AI生成的另一类输入
type TestSpec struct {
	BaseModel
	CustomerID      int64  `gorm:"not null;index" json:"customer_id"`
	Name            string `gorm:"size:150;not null" json:"name"`
	Module          string `gorm:"size:100" json:"module"`
	Category        string `gorm:"size:20;not null;default:'functional'" json:"category"`
	Priority        string `gorm:"size:10;not null;default:'medium'" json:"priority"` // low/medium/high/critical
	Description     string `gorm:"type:text;not null" json:"description"`
	Preconditions   string `gorm:"type:text" json:"preconditions"`
	ExpectedResults string `gorm:"type:text" json:"expected_results"`
	SuiteID         *int64 `gorm:"index" json:"suite_id"` // 生成的用例默认归属的套件

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Suite    *TestSuite `gorm:"foreignKey:SuiteID" json:"suite,omitempty"`
	Cases    []TestCase `gorm:"foreignKey:SpecID" json:"cases,omitempty"`
}

// TableName 指定表名
func (TestSpec) TableName() string {
	return "test_specs"
}

// TestCase 测试用例
type TestCase struct {
	BaseModel
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	TestID     string `gorm:"column:test_id;size:50" json:"test_id"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Category   string `gorm:"size:20;not null;default:'functional';index" json:"category"`
	Tags       StringList `gorm:"type:json" json:"tags"`

	Documentation string `gorm:"type:text" json:"documentation"`

	// 生成溯源
	GenerationSource string `gorm:"size:20;not null;default:'manual'" json:"generation_source"` // manual/spec/code_scan/regression
	SpecID           *int64 `gorm:"index" json:"spec_id"`
	ScanID           *int64 `gorm:"index" json:"scan_id"`
	AnalysisID       *int64 `gorm:"index" json:"analysis_id"`

	// 可执行产物
	RobotCode string `gorm:"type:text" json:"robot_code"`

	// 归属套件, 至多一个
	SuiteID  *int64 `gorm:"index" json:"suite_id"`
	Sequence int    `gorm:"not null;default:0" json:"sequence"` // 套件内顺序

	// 最近一次执行结果快照
	LastStatus string     `gorm:"size:10" json:"last_status"`
	LastRunAt  *time.Time `json:"last_run_at"`

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Suite    *TestSuite `gorm:"foreignKey:SuiteID" json:"suite,omitempty"`
	Steps    []TestStep `gorm:"foreignKey:TestCaseID" json:"steps,omitempty"`
}

// TableName 指定表名
func (TestCase) TableName() string {
	return "test_cases"
}

// TestStep 测试步骤
type TestStep struct {
	BaseModel
	TestCaseID     int64  `gorm:"not null;index" json:"test_case_id"`
	Sequence       int    `gorm:"not null;default:1" json:"sequence"`
	Name           string `gorm:"size:200;not null" json:"name"`
	Action         string `gorm:"type:text" json:"action"`
	ExpectedResult string `gorm:"type:text" json:"expected_result"`
}

// TableName 指定表名
func (TestStep) TableName() string {
	return "test_steps"
}
