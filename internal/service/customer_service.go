package service

import (
	"time"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/repository"
	pkgErrors "qa-platform/pkg/errors"
)

// CustomerService 客户服务接口
type CustomerService interface {
	Create(req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Update(req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	GetByID(id int64) (*dto.CustomerResponse, error)
	List(query *dto.CustomerListQuery) ([]*dto.CustomerResponse, int64, error)
	Delete(id int64) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService 创建客户服务实例
func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

// Create 创建客户, 编码唯一
func (s *customerService) Create(req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if _, err := s.customerRepo.FindByCode(req.Code); err == nil {
		return nil, pkgErrors.ErrRecordExists
	} else if !pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	customer := &model.Customer{
		Code:         req.Code,
		Name:         req.Name,
		ERPVersion:   req.ERPVersion,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Description:  req.Description,
	}
	customer.Status = 1

	if err := s.customerRepo.Create(customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer, false), nil
}

// Update 更新客户, 编码不可变
func (s *customerService) Update(req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.ERPVersion != nil {
		customer.ERPVersion = *req.ERPVersion
	}
	if req.ContactName != nil {
		customer.ContactName = req.ContactName
	}
	if req.ContactEmail != nil {
		customer.ContactEmail = req.ContactEmail
	}
	if req.Description != nil {
		customer.Description = req.Description
	}
	if req.Status != nil {
		customer.Status = *req.Status
	}

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer, false), nil
}

// GetByID 查询客户详情(含环境)
func (s *customerService) GetByID(id int64) (*dto.CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(id, repository.WithPreload("Servers"))
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer, true), nil
}

// List 分页查询客户
func (s *customerService) List(query *dto.CustomerListQuery) ([]*dto.CustomerResponse, int64, error) {
	withServers := query.WithServers != nil && *query.WithServers
	customers, total, err := s.customerRepo.List(query.GetPage(), query.GetPageSize(), query.Keyword, query.Status, withServers)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c, withServers))
	}
	return resp, total, nil
}

// Delete 删除客户
func (s *customerService) Delete(id int64) error {
	if _, err := s.customerRepo.FindByID(id); err != nil {
		return err
	}
	return s.customerRepo.Delete(id)
}

func toCustomerResponse(c *model.Customer, withServers bool) *dto.CustomerResponse {
	resp := &dto.CustomerResponse{
		ID:           c.ID,
		Code:         c.Code,
		Name:         c.Name,
		ERPVersion:   c.ERPVersion,
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		Description:  c.Description,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
	if withServers {
		for _, srv := range c.Servers {
			srv := srv
			resp.Servers = append(resp.Servers, toServerResponse(&srv))
		}
	}
	return resp
}

// ServerService 客户环境服务接口
type ServerService interface {
	Create(req *dto.CreateServerRequest) (*dto.ServerResponse, error)
	Update(req *dto.UpdateServerRequest) (*dto.ServerResponse, error)
	GetByID(id int64) (*dto.ServerResponse, error)
	List(query *dto.ServerListQuery) ([]*dto.ServerResponse, int64, error)
	Delete(id int64) error
}

type serverService struct {
	serverRepo   repository.ServerRepository
	customerRepo repository.CustomerRepository
}

// NewServerService 创建客户环境服务实例
func NewServerService(serverRepo repository.ServerRepository, customerRepo repository.CustomerRepository) ServerService {
	return &serverService{serverRepo: serverRepo, customerRepo: customerRepo}
}

// Create 创建环境, 凭据加密落库
func (s *serverService) Create(req *dto.CreateServerRequest) (*dto.ServerResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}

	server := &model.Server{
		CustomerID:  req.CustomerID,
		Name:        req.Name,
		URL:         req.URL,
		Database:    req.Database,
		Environment: req.Environment,
		Username:    req.Username,
	}
	server.Status = 1

	if req.Password != "" {
		encrypted, err := crypto.Encrypt(req.Password)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密环境密码失败", err)
		}
		server.Password = encrypted
	}
	if req.SSHHost != nil {
		server.SSHHost = *req.SSHHost
	}
	if req.SSHPort != nil {
		server.SSHPort = *req.SSHPort
	}
	if req.SSHUser != nil {
		server.SSHUser = *req.SSHUser
	}
	if req.SSHCredential != nil && *req.SSHCredential != "" {
		encrypted, err := crypto.Encrypt(*req.SSHCredential)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密SSH凭据失败", err)
		}
		server.SSHCredential = encrypted
	}

	if err := s.serverRepo.Create(server); err != nil {
		return nil, err
	}
	return toServerResponse(server), nil
}

// Update 更新环境, 未提交的凭据保持不变
func (s *serverService) Update(req *dto.UpdateServerRequest) (*dto.ServerResponse, error) {
	server, err := s.serverRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		server.Name = *req.Name
	}
	if req.URL != nil {
		server.URL = *req.URL
	}
	if req.Database != nil {
		server.Database = *req.Database
	}
	if req.Environment != nil {
		server.Environment = *req.Environment
	}
	if req.Username != nil {
		server.Username = *req.Username
	}
	if req.Password != nil && *req.Password != "" {
		encrypted, err := crypto.Encrypt(*req.Password)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密环境密码失败", err)
		}
		server.Password = encrypted
	}
	if req.SSHHost != nil {
		server.SSHHost = *req.SSHHost
	}
	if req.SSHPort != nil {
		server.SSHPort = *req.SSHPort
	}
	if req.SSHUser != nil {
		server.SSHUser = *req.SSHUser
	}
	if req.SSHCredential != nil && *req.SSHCredential != "" {
		encrypted, err := crypto.Encrypt(*req.SSHCredential)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密SSH凭据失败", err)
		}
		server.SSHCredential = encrypted
	}
	if req.Status != nil {
		server.Status = *req.Status
	}

	if err := s.serverRepo.Update(server); err != nil {
		return nil, err
	}
	return toServerResponse(server), nil
}

// GetByID 查询环境详情
func (s *serverService) GetByID(id int64) (*dto.ServerResponse, error) {
	server, err := s.serverRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	return toServerResponse(server), nil
}

// List 分页查询环境
func (s *serverService) List(query *dto.ServerListQuery) ([]*dto.ServerResponse, int64, error) {
	servers, total, err := s.serverRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.Environment, query.Keyword, query.Status)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.ServerResponse, 0, len(servers))
	for _, srv := range servers {
		resp = append(resp, toServerResponse(srv))
	}
	return resp, total, nil
}

// Delete 删除环境
func (s *serverService) Delete(id int64) error {
	if _, err := s.serverRepo.FindByID(id); err != nil {
		return err
	}
	return s.serverRepo.Delete(id)
}

func toServerResponse(srv *model.Server) *dto.ServerResponse {
	resp := &dto.ServerResponse{
		ID:          srv.ID,
		CustomerID:  srv.CustomerID,
		Name:        srv.Name,
		URL:         srv.URL,
		Database:    srv.Database,
		Environment: srv.Environment,
		Username:    srv.Username,
		SSHHost:     srv.SSHHost,
		SSHPort:     srv.SSHPort,
		SSHUser:     srv.SSHUser,
		Status:      srv.Status,
		CreatedAt:   srv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   srv.UpdatedAt.Format(time.RFC3339),
	}
	if srv.Customer != nil {
		resp.CustomerName = &srv.Customer.Name
	}
	return resp
}
