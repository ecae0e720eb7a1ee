package model

// Customer 客户(租户)模型, 所有测试资产按客户隔离
type Customer struct {
	BaseStatus
	Code         string  `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	ERPVersion   string  `gorm:"column:erp_version;size:20" json:"erp_version"`
	ContactName  *string `gorm:"size:100" json:"contact_name"`
	ContactEmail *string `gorm:"size:100" json:"contact_email"`
	Description  *string `gorm:"type:text" json:"description"`

	// 关联关系
	Servers []Server    `gorm:"foreignKey:CustomerID" json:"servers,omitempty"`
	Suites  []TestSuite `gorm:"foreignKey:CustomerID" json:"suites,omitempty"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// Server 客户目标环境
type Server struct {
	BaseStatus
	CustomerID  int64  `gorm:"not null;index" json:"customer_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	URL         string `gorm:"size:255;not null" json:"url"`
	Database    string `gorm:"size:100" json:"database"`
	Environment string `gorm:"size:20;not null;default:'staging';index" json:"environment"` // local/dev/staging/uat/production
	Username    string `gorm:"size:100" json:"username"`
	Password    string `gorm:"size:255" json:"-"` // AES加密存储

	// SSH 执行通道
	SSHHost       string `gorm:"column:ssh_host;size:255" json:"ssh_host"`
	SSHPort       int    `gorm:"column:ssh_port;default:22" json:"ssh_port"`
	SSHUser       string `gorm:"column:ssh_user;size:100" json:"ssh_user"`
	SSHCredential string `gorm:"column:ssh_credential;size:2048" json:"-"` // AES加密存储

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName 指定表名
func (Server) TableName() string {
	return "servers"
}
