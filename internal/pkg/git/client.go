package git

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PlatformType 平台类型
type PlatformType string

const (
	PlatformGitHub PlatformType = "github"
	PlatformGitLab PlatformType = "gitlab"
)

// ClientConfig 客户端配置
type ClientConfig struct {
	BaseURL      string       // 平台基础URL，如: https://gitlab.example.com
	Token        string       // 访问Token
	PlatformType PlatformType // 平台类型
}

// Client Git平台API客户端, 用于连通性探测与仓库发现
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// RepositoryInfo 平台侧仓库条目, 只保留注册仓库需要的字段
type RepositoryInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Archived      bool   `json:"archived"`
}

// NewClient 创建Git平台客户端
func NewClient(config *ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL不能为空")
	}
	if config.PlatformType == "" {
		return nil, fmt.Errorf("PlatformType不能为空")
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// TestConnection 测试连接
func (c *Client) TestConnection() error {
	var url string
	switch c.config.PlatformType {
	case PlatformGitHub:
		url = "https://api.github.com/user"
	case PlatformGitLab:
		url = fmt.Sprintf("%s/api/v4/user", strings.TrimSuffix(c.config.BaseURL, "/"))
	default:
		return fmt.Errorf("不支持的平台类型: %s", c.config.PlatformType)
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}

	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("连接失败 (状态码: %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// ListRepositories 获取用户或组织的仓库列表
func (c *Client) ListRepositories(owner string) ([]RepositoryInfo, error) {
	switch c.config.PlatformType {
	case PlatformGitHub:
		return c.listGitHubRepositories(owner)
	case PlatformGitLab:
		return c.listGitLabRepositories(owner)
	default:
		return nil, fmt.Errorf("不支持的平台类型: %s", c.config.PlatformType)
	}
}

// listGitHubRepositories 获取GitHub仓库列表
func (c *Client) listGitHubRepositories(owner string) ([]RepositoryInfo, error) {
	// 先尝试用户仓库
	url := fmt.Sprintf("https://api.github.com/users/%s/repos?per_page=100", owner)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 尝试组织仓库
		url = fmt.Sprintf("https://api.github.com/orgs/%s/repos?per_page=100", owner)
		req, _ = http.NewRequest("GET", url, nil)
		c.setAuthHeader(req)

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("请求失败 (状态码: %d): %s", resp.StatusCode, string(body))
		}
	}

	var githubRepos []struct {
		Name          string `json:"name"`
		FullName      string `json:"full_name"`
		Description   string `json:"description"`
		CloneURL      string `json:"clone_url"`
		DefaultBranch string `json:"default_branch"`
		Private       bool   `json:"private"`
		Archived      bool   `json:"archived"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&githubRepos); err != nil {
		return nil, err
	}

	repos := make([]RepositoryInfo, len(githubRepos))
	for i, r := range githubRepos {
		repos[i] = RepositoryInfo{
			Name:          r.Name,
			FullName:      r.FullName,
			Description:   r.Description,
			CloneURL:      r.CloneURL,
			DefaultBranch: r.DefaultBranch,
			Private:       r.Private,
			Archived:      r.Archived,
		}
	}

	return repos, nil
}

// listGitLabRepositories 获取GitLab仓库列表
func (c *Client) listGitLabRepositories(owner string) ([]RepositoryInfo, error) {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")

	// GitLab使用组或用户的projects端点
	url := fmt.Sprintf("%s/api/v4/users/%s/projects?per_page=100", baseURL, owner)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 尝试作为group
		url = fmt.Sprintf("%s/api/v4/groups/%s/projects?per_page=100", baseURL, owner)
		req, _ = http.NewRequest("GET", url, nil)
		c.setAuthHeader(req)

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("请求失败 (状态码: %d): %s", resp.StatusCode, string(body))
		}
	}

	var gitlabProjects []struct {
		Name              string `json:"name"`
		PathWithNamespace string `json:"path_with_namespace"`
		Description       string `json:"description"`
		HTTPURLToRepo     string `json:"http_url_to_repo"`
		DefaultBranch     string `json:"default_branch"`
		Visibility        string `json:"visibility"`
		Archived          bool   `json:"archived"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&gitlabProjects); err != nil {
		return nil, err
	}

	repos := make([]RepositoryInfo, len(gitlabProjects))
	for i, p := range gitlabProjects {
		repos[i] = RepositoryInfo{
			Name:          p.Name,
			FullName:      p.PathWithNamespace,
			Description:   p.Description,
			CloneURL:      p.HTTPURLToRepo,
			DefaultBranch: p.DefaultBranch,
			Private:       p.Visibility == "private",
			Archived:      p.Archived,
		}
	}

	return repos, nil
}

// setAuthHeader 设置认证头
func (c *Client) setAuthHeader(req *http.Request) {
	if c.config.Token == "" {
		return
	}

	switch c.config.PlatformType {
	case PlatformGitHub:
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.config.Token))
	case PlatformGitLab:
		req.Header.Set("PRIVATE-TOKEN", c.config.Token)
	}
}
