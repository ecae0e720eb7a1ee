package service

import (
	"net/url"
	"time"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/pkg/git"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// GitRepositoryService 代码仓库服务接口
type GitRepositoryService interface {
	Create(req *dto.CreateRepositoryRequest) (*dto.RepositoryResponse, error)
	Update(req *dto.UpdateRepositoryRequest) (*dto.RepositoryResponse, error)
	GetByID(id int64) (*dto.RepositoryResponse, error)
	List(query *dto.RepositoryListQuery) ([]*dto.RepositoryResponse, int64, error)
	Delete(id int64) error

	// TestConnection 用已保存的凭据探测平台API连通性
	TestConnection(id int64) error
	// Discover 按平台凭据列出owner名下可注册的仓库
	Discover(req *dto.DiscoverRepositoriesRequest) ([]*dto.RemoteRepositoryResponse, error)

	UpsertModuleSource(req *dto.UpsertModuleSourceRequest) (*dto.ModuleSourceResponse, error)
	ListModuleSources(repositoryID int64) ([]*dto.ModuleSourceResponse, error)
	DeleteModuleSource(id int64) error
}

type gitRepositoryService struct {
	repoRepo     repository.GitRepositoryRepository
	sourceRepo   repository.ModuleSourceRepository
	customerRepo repository.CustomerRepository
}

// NewGitRepositoryService 创建代码仓库服务实例
func NewGitRepositoryService(
	repoRepo repository.GitRepositoryRepository,
	sourceRepo repository.ModuleSourceRepository,
	customerRepo repository.CustomerRepository,
) GitRepositoryService {
	return &gitRepositoryService{
		repoRepo:     repoRepo,
		sourceRepo:   sourceRepo,
		customerRepo: customerRepo,
	}
}

// Create 创建代码仓库, 凭据加密落库
func (s *gitRepositoryService) Create(req *dto.CreateRepositoryRequest) (*dto.RepositoryResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}

	repo := &model.GitRepository{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Provider:   req.Provider,
		RepoURL:    req.RepoURL,
		Branch:     req.Branch,
		AuthType:   req.AuthType,
	}
	repo.Status = 1
	if repo.Branch == "" {
		repo.Branch = "main"
	}
	if repo.AuthType == "" {
		repo.AuthType = constants.RepoAuthNone
	}
	if req.Username != nil {
		repo.Username = *req.Username
	}
	if req.ModulePattern != nil {
		repo.ModulePattern = *req.ModulePattern
	}
	if req.Credential != nil && *req.Credential != "" {
		encrypted, err := crypto.Encrypt(*req.Credential)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密仓库凭据失败", err)
		}
		repo.Credential = encrypted
	}

	if err := s.repoRepo.Create(repo); err != nil {
		return nil, err
	}
	return toRepositoryResponse(repo), nil
}

// Update 更新代码仓库
func (s *gitRepositoryService) Update(req *dto.UpdateRepositoryRequest) (*dto.RepositoryResponse, error) {
	repo, err := s.repoRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		repo.Name = *req.Name
	}
	if req.Provider != nil {
		repo.Provider = *req.Provider
	}
	if req.RepoURL != nil {
		repo.RepoURL = *req.RepoURL
	}
	if req.Branch != nil {
		repo.Branch = *req.Branch
	}
	if req.AuthType != nil {
		repo.AuthType = *req.AuthType
	}
	if req.Username != nil {
		repo.Username = *req.Username
	}
	if req.ModulePattern != nil {
		repo.ModulePattern = *req.ModulePattern
	}
	if req.Credential != nil && *req.Credential != "" {
		encrypted, err := crypto.Encrypt(*req.Credential)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加密仓库凭据失败", err)
		}
		repo.Credential = encrypted
	}
	if req.Status != nil {
		repo.Status = *req.Status
	}

	if err := s.repoRepo.Update(repo); err != nil {
		return nil, err
	}
	return toRepositoryResponse(repo), nil
}

// GetByID 查询代码仓库详情
func (s *gitRepositoryService) GetByID(id int64) (*dto.RepositoryResponse, error) {
	repo, err := s.repoRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	return toRepositoryResponse(repo), nil
}

// List 分页查询代码仓库
func (s *gitRepositoryService) List(query *dto.RepositoryListQuery) ([]*dto.RepositoryResponse, int64, error) {
	repos, total, err := s.repoRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.Provider, query.Keyword, query.Status)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.RepositoryResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepositoryResponse(repo))
	}
	return resp, total, nil
}

// Delete 删除代码仓库
func (s *gitRepositoryService) Delete(id int64) error {
	if _, err := s.repoRepo.FindByID(id); err != nil {
		return err
	}
	return s.repoRepo.Delete(id)
}

// TestConnection 用已保存的凭据探测平台API连通性
func (s *gitRepositoryService) TestConnection(id int64) error {
	repo, err := s.repoRepo.FindByID(id)
	if err != nil {
		return err
	}

	platform, err := platformTypeOf(repo.Provider)
	if err != nil {
		return err
	}

	token := ""
	if repo.Credential != "" {
		token, err = crypto.Decrypt(repo.Credential)
		if err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeInternalError, "解密仓库凭据失败", err)
		}
	}

	client, err := git.NewClient(&git.ClientConfig{
		BaseURL:      baseURLOf(repo.RepoURL),
		Token:        token,
		PlatformType: platform,
	})
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeBadRequest, "仓库平台配置无效", err)
	}

	if err := client.TestConnection(); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeFetchAuthError, "仓库平台连接失败", err)
	}
	return nil
}

// Discover 按平台凭据列出owner名下可注册的仓库
func (s *gitRepositoryService) Discover(req *dto.DiscoverRepositoriesRequest) ([]*dto.RemoteRepositoryResponse, error) {
	platform, err := platformTypeOf(req.Provider)
	if err != nil {
		return nil, err
	}

	client, err := git.NewClient(&git.ClientConfig{
		BaseURL:      req.BaseURL,
		Token:        req.Token,
		PlatformType: platform,
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "仓库平台配置无效", err)
	}

	repos, err := client.ListRepositories(req.Owner)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeFetchError, "获取平台仓库列表失败", err)
	}

	resp := make([]*dto.RemoteRepositoryResponse, 0, len(repos))
	for _, r := range repos {
		resp = append(resp, &dto.RemoteRepositoryResponse{
			Name:          r.Name,
			FullName:      r.FullName,
			Description:   r.Description,
			CloneURL:      r.CloneURL,
			DefaultBranch: r.DefaultBranch,
			Private:       r.Private,
			Archived:      r.Archived,
		})
	}
	return resp, nil
}

func platformTypeOf(provider string) (git.PlatformType, error) {
	switch provider {
	case "github":
		return git.PlatformGitHub, nil
	case "gitlab":
		return git.PlatformGitLab, nil
	default:
		return "", pkgErrors.New(pkgErrors.CodeBadRequest, "该仓库平台不支持API探测: "+provider)
	}
}

// baseURLOf 从克隆地址截取平台基础URL(scheme://host)
func baseURLOf(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return repoURL
	}
	return u.Scheme + "://" + u.Host
}

// UpsertModuleSource 登记模块来源, 模块名全局唯一
func (s *gitRepositoryService) UpsertModuleSource(req *dto.UpsertModuleSourceRequest) (*dto.ModuleSourceResponse, error) {
	if _, err := s.repoRepo.FindByID(req.RepositoryID); err != nil {
		return nil, err
	}

	source := &model.ModuleSource{
		ModuleName:   req.ModuleName,
		RepositoryID: req.RepositoryID,
	}
	if req.PathOverride != nil {
		source.PathOverride = *req.PathOverride
	}
	if req.Branch != nil {
		source.Branch = *req.Branch
	}

	if err := s.sourceRepo.Upsert(source); err != nil {
		return nil, err
	}
	return toModuleSourceResponse(source), nil
}

// ListModuleSources 查询仓库登记的模块
func (s *gitRepositoryService) ListModuleSources(repositoryID int64) ([]*dto.ModuleSourceResponse, error) {
	sources, err := s.sourceRepo.ListByRepositoryID(repositoryID)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.ModuleSourceResponse, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, toModuleSourceResponse(src))
	}
	return resp, nil
}

// DeleteModuleSource 删除模块来源
func (s *gitRepositoryService) DeleteModuleSource(id int64) error {
	return s.sourceRepo.Delete(id)
}

func toRepositoryResponse(repo *model.GitRepository) *dto.RepositoryResponse {
	resp := &dto.RepositoryResponse{
		ID:            repo.ID,
		CustomerID:    repo.CustomerID,
		Name:          repo.Name,
		Provider:      repo.Provider,
		RepoURL:       repo.RepoURL,
		Branch:        repo.Branch,
		AuthType:      repo.AuthType,
		Username:      repo.Username,
		HasCredential: repo.Credential != "",
		ModulePattern: repo.ModulePattern,
		LastError:     repo.LastError,
		Status:        repo.Status,
		CreatedAt:     repo.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     repo.UpdatedAt.Format(time.RFC3339),
	}
	if repo.Customer != nil {
		resp.CustomerName = &repo.Customer.Name
	}
	if repo.LastSyncAt != nil {
		synced := repo.LastSyncAt.Format(time.RFC3339)
		resp.LastSyncAt = &synced
	}
	return resp
}

func toModuleSourceResponse(src *model.ModuleSource) *dto.ModuleSourceResponse {
	resp := &dto.ModuleSourceResponse{
		ID:           src.ID,
		ModuleName:   src.ModuleName,
		RepositoryID: src.RepositoryID,
		PathOverride: src.PathOverride,
		Branch:       src.Branch,
		CreatedAt:    src.CreatedAt.Format(time.RFC3339),
	}
	if src.Repository != nil {
		resp.RepoName = &src.Repository.Name
	}
	if src.LastFetchAt != nil {
		fetched := src.LastFetchAt.Format(time.RFC3339)
		resp.LastFetchAt = &fetched
	}
	return resp
}
