package model

import "time"

// RegressionSuite 回归测试套件, 覆盖客户核心模块
type RegressionSuite struct {
	BaseStatus
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	Name       string `gorm:"size:150;not null" json:"name"`

	// 选择的ERP模块, 模板按模块实例化
	Modules StringList `gorm:"type:json" json:"modules"`

	SuiteID *int64 `gorm:"index" json:"suite_id"` // 实例化出的执行套件

	LastRunDate   *time.Time `json:"last_run_date"`
	LastRunResult string     `gorm:"size:10;not null;default:'none'" json:"last_run_result"` // none/passed/failed
	PassRate      float64    `json:"pass_rate"`                                              // 最近10次完成运行的通过率

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Suite    *TestSuite `gorm:"foreignKey:SuiteID" json:"suite,omitempty"`
}

// TableName 指定表名
func (RegressionSuite) TableName() string {
	return "regression_suites"
}

// RegressionTemplate 数据库内的模板覆盖, 内置模板按模块名匹配后被其覆盖
type RegressionTemplate struct {
	BaseStatus
	Module      string `gorm:"size:100;not null;index" json:"module"`
	Name        string `gorm:"size:150;not null" json:"name"`
	Category    string `gorm:"size:20;not null;default:'functional'" json:"category"`
	Description string `gorm:"type:text" json:"description"`
	RobotCode   string `gorm:"type:text;not null" json:"robot_code"` // 含 ${PARAM} 占位符
	Tags        StringList `gorm:"type:json" json:"tags"`
}

// TableName 指定表名
func (RegressionTemplate) TableName() string {
	return "regression_templates"
}
