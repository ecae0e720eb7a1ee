package model

import "time"

// Requirement 客户需求, 走单向生命周期
type Requirement struct {
	BaseModel
	CustomerID int64  `gorm:"not null;uniqueIndex:uk_customer_req_code" json:"customer_id"`
	Code       string `gorm:"size:50;not null;uniqueIndex:uk_customer_req_code" json:"code"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Category   string `gorm:"size:30;not null;default:'functional'" json:"category"`
	Priority   string `gorm:"size:10;not null;default:'medium'" json:"priority"`

	Description        string `gorm:"type:text" json:"description"`
	AcceptanceCriteria string `gorm:"type:text" json:"acceptance_criteria"`

	// draft → approved → implementing → testing → deployed → verified
	Status int8 `gorm:"not null;default:0;index" json:"status"`

	// 关联测试用例
	TestCaseIDs Int64List `gorm:"type:json" json:"test_case_ids"`

	// 验收记录(时点性断言, 不自动回退)
	VerifiedAt *time.Time `json:"verified_at"`
	VerifiedBy string     `gorm:"size:100" json:"verified_by"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName 指定表名
func (Requirement) TableName() string {
	return "requirements"
}
