package model

import "gorm.io/datatypes"

// ModuleAnalysis 单个业务模型的静态分析结果, 生成后不可变更, 重分析产生新记录
type ModuleAnalysis struct {
	BaseModel
	ModuleID         int64  `gorm:"not null;index" json:"module_id"`
	ModelName        string `gorm:"size:100;not null;index" json:"model_name"`
	ModelDescription string `gorm:"size:255" json:"model_description"`
	InheritModel     string `gorm:"size:100" json:"inherit_model"`
	FieldCount       int    `json:"field_count"`
	MethodCount      int    `json:"method_count"`
	HasWorkflow      bool   `gorm:"not null;default:false" json:"has_workflow"`
	HasConstraints   bool   `gorm:"not null;default:false" json:"has_constraints"`
	Superseded       bool   `gorm:"not null;default:false;index" json:"superseded"`

	// 完整事实载荷(analyzer.ModelFacts 序列化)
	Facts datatypes.JSON `gorm:"type:json" json:"facts"`

	// 分析过程中的非致命告警
	Warnings StringList `gorm:"type:json" json:"warnings"`

	TestCount int `json:"test_count"` // 基于该分析生成的用例数

	Module *ScannedModule `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
}

// TableName 指定表名
func (ModuleAnalysis) TableName() string {
	return "module_analyses"
}
