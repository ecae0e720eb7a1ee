package dto

// CreateCustomerRequest 创建客户请求
type CreateCustomerRequest struct {
	Code         string  `json:"code" binding:"required,max=50"`
	Name         string  `json:"name" binding:"required,max=100"`
	ERPVersion   string  `json:"erp_version" binding:"omitempty,max=20"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	Description  *string `json:"description"`
}

// UpdateCustomerRequest 更新客户请求
type UpdateCustomerRequest struct {
	ID           int64   `json:"id" binding:"required"` // 必填：要更新的客户ID
	Name         *string `json:"name" binding:"omitempty,max=100"`
	ERPVersion   *string `json:"erp_version" binding:"omitempty,max=20"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	Description  *string `json:"description"`
	Status       *int8   `json:"status" binding:"omitempty,oneof=0 1"`
}

// CustomerResponse 客户响应
type CustomerResponse struct {
	ID           int64             `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	ERPVersion   string            `json:"erp_version"`
	ContactName  *string           `json:"contact_name"`
	ContactEmail *string           `json:"contact_email"`
	Description  *string           `json:"description"`
	Status       int8              `json:"status"`
	Servers      []*ServerResponse `json:"servers,omitempty"` // 关联的环境列表
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// CustomerListQuery 客户列表查询参数
type CustomerListQuery struct {
	PageQuery
	WithServers *bool `form:"with_servers"` // 可选：是否包含环境列表, 默认false
}

// CreateServerRequest 创建客户环境请求
type CreateServerRequest struct {
	CustomerID  int64  `json:"customer_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=100"`
	URL         string `json:"url" binding:"required,url"`
	Database    string `json:"database" binding:"omitempty,max=100"`
	Environment string `json:"environment" binding:"required,oneof=local dev staging uat production"`
	Username    string `json:"username" binding:"omitempty,max=100"`
	Password    string `json:"password"` // 明文提交, 落库前加密

	SSHHost       *string `json:"ssh_host"`
	SSHPort       *int    `json:"ssh_port"`
	SSHUser       *string `json:"ssh_user"`
	SSHCredential *string `json:"ssh_credential"` // 密码或私钥, 落库前加密
}

// UpdateServerRequest 更新客户环境请求
type UpdateServerRequest struct {
	ID          int64   `json:"id" binding:"required"`
	Name        *string `json:"name" binding:"omitempty,max=100"`
	URL         *string `json:"url" binding:"omitempty,url"`
	Database    *string `json:"database" binding:"omitempty,max=100"`
	Environment *string `json:"environment" binding:"omitempty,oneof=local dev staging uat production"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`

	SSHHost       *string `json:"ssh_host"`
	SSHPort       *int    `json:"ssh_port"`
	SSHUser       *string `json:"ssh_user"`
	SSHCredential *string `json:"ssh_credential"`

	Status *int8 `json:"status" binding:"omitempty,oneof=0 1"`
}

// ServerResponse 客户环境响应
type ServerResponse struct {
	ID           int64   `json:"id"`
	CustomerID   int64   `json:"customer_id"`
	CustomerName *string `json:"customer_name,omitempty"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Database     string  `json:"database"`
	Environment  string  `json:"environment"`
	Username     string  `json:"username"`
	SSHHost      string  `json:"ssh_host"`
	SSHPort      int     `json:"ssh_port"`
	SSHUser      string  `json:"ssh_user"`
	Status       int8    `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ServerListQuery 环境列表查询参数
type ServerListQuery struct {
	PageQuery
	CustomerID  *int64  `form:"customer_id"`
	Environment *string `form:"environment" binding:"omitempty,oneof=local dev staging uat production"`
}
