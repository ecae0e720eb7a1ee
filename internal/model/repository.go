package model

import "time"

// GitRepository 客户代码仓库
type GitRepository struct {
	BaseStatus
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	Name       string `gorm:"size:100;not null" json:"name"`
	Provider   string `gorm:"size:20;not null;default:'github'" json:"provider"` // github/gitlab/bitbucket/custom
	RepoURL    string `gorm:"column:repo_url;size:255;not null" json:"repo_url"`
	Branch     string `gorm:"size:100;not null;default:'main'" json:"branch"`

	// 认证
	AuthType   string `gorm:"size:20;not null;default:'none'" json:"auth_type"` // none/token/basic
	Username   string `gorm:"size:100" json:"username"`
	Credential string `gorm:"size:2048" json:"-"` // AES加密存储

	// 模块发现
	ModulePattern string `gorm:"size:255" json:"module_pattern"` // 限定模块所在子目录, 可空

	LastSyncAt *time.Time `json:"last_sync_at"`
	LastError  *string    `gorm:"type:text" json:"last_error"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName 指定表名
func (GitRepository) TableName() string {
	return "git_repositories"
}

// ModuleSource 模块名到仓库位置的映射, 模块名唯一
type ModuleSource struct {
	BaseModel
	ModuleName   string     `gorm:"size:100;not null;uniqueIndex" json:"module_name"`
	RepositoryID int64      `gorm:"not null;index" json:"repository_id"`
	PathOverride string     `gorm:"size:255" json:"path_override"`
	Branch       string     `gorm:"size:100" json:"branch"` // 为空时使用仓库默认分支
	LastFetchAt  *time.Time `json:"last_fetch_at"`

	Repository *GitRepository `gorm:"foreignKey:RepositoryID" json:"repository,omitempty"`
}

// TableName 指定表名
func (ModuleSource) TableName() string {
	return "module_sources"
}
