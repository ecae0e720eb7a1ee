package model

import "time"

const CodeScanTableName = "code_scans"

// CodeScan 代码扫描会话
type CodeScan struct {
	BaseModel
	Name         string `gorm:"size:150;not null" json:"name"`
	CustomerID   int64  `gorm:"not null;index" json:"customer_id"`
	RepositoryID int64  `gorm:"not null;index" json:"repository_id"`
	Branch       string `gorm:"size:100;not null;default:'main'" json:"branch"`

	// 提交信息
	CommitHash    string     `gorm:"size:64" json:"commit_hash"`
	CommitMessage string     `gorm:"size:255" json:"commit_message"`
	ScanDate      *time.Time `json:"scan_date"`

	// 状态机: draft → scanning → scanned → analyzing → analyzed → generating → done | error
	Status int8 `gorm:"not null;default:0;index" json:"status"`

	// 日志
	ScanLog      string  `gorm:"type:text" json:"scan_log"`
	ErrorMessage *string `gorm:"type:text" json:"error_message"`

	// 生成选项
	IncludeCRUDTests       bool `gorm:"not null;default:true" json:"include_crud_tests"`
	IncludeValidationTests bool `gorm:"not null;default:true" json:"include_validation_tests"`
	IncludeWorkflowTests   bool `gorm:"not null;default:true" json:"include_workflow_tests"`
	IncludeSecurityTests   bool `gorm:"not null;default:true" json:"include_security_tests"`
	IncludeNegativeTests   bool `gorm:"not null;default:true" json:"include_negative_tests"`
	MaxTestsPerModel       int  `gorm:"not null;default:25" json:"max_tests_per_model"`

	// 关联关系
	Customer   *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Repository *GitRepository  `gorm:"foreignKey:RepositoryID" json:"repository,omitempty"`
	Modules    []ScannedModule `gorm:"foreignKey:ScanID" json:"modules,omitempty"`
}

// TableName 指定表名
func (CodeScan) TableName() string {
	return CodeScanTableName
}

// ScannedModule 扫描发现的ERP模块
type ScannedModule struct {
	BaseModel
	ScanID        int64  `gorm:"not null;index" json:"scan_id"`
	TechnicalName string `gorm:"size:100;not null;index" json:"technical_name"`
	DisplayName   string `gorm:"size:150" json:"display_name"`
	Version       string `gorm:"size:30" json:"version"`
	Path          string `gorm:"size:255" json:"path"`
	Depends       string `gorm:"size:500" json:"depends"` // 逗号分隔的依赖模块
	ModelCount    int    `json:"model_count"`
	ViewCount     int    `json:"view_count"`
	Selected      bool   `gorm:"not null;default:false" json:"selected"`
	Analyzed      bool   `gorm:"not null;default:false" json:"analyzed"`

	Scan     *CodeScan        `gorm:"foreignKey:ScanID" json:"scan,omitempty"`
	Analyses []ModuleAnalysis `gorm:"foreignKey:ModuleID" json:"analyses,omitempty"`
}

// TableName 指定表名
func (ScannedModule) TableName() string {
	return "scanned_modules"
}
