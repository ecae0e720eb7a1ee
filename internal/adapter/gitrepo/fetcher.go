package gitrepo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"qa-platform/internal/pkg/logger"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// CommitInfo 最新提交信息
type CommitInfo struct {
	Hash    string
	Message string
}

// FetchRequest 仓库拉取请求
type FetchRequest struct {
	RepoURL    string
	Branch     string
	Provider   string // github/gitlab/bitbucket/custom
	AuthType   string // none/token/basic
	Username   string
	Credential string // 已解密的令牌或密码
}

// Fetcher 仓库拉取器接口
type Fetcher interface {
	// Fetch 浅克隆指定分支, 返回工作树路径与最新提交信息
	Fetch(ctx context.Context, req FetchRequest) (string, *CommitInfo, error)
	// Cleanup 删除工作树
	Cleanup(path string)
}

type gitFetcher struct {
	workDir string
	timeout time.Duration
}

// NewFetcher 创建基于git命令的拉取器
func NewFetcher(workDir string, timeout time.Duration) Fetcher {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &gitFetcher{workDir: workDir, timeout: timeout}
}

// Fetch 浅克隆仓库
func (f *gitFetcher) Fetch(ctx context.Context, req FetchRequest) (string, *CommitInfo, error) {
	if req.Branch == "" {
		req.Branch = "main"
	}

	cloneURL, err := buildCloneURL(req)
	if err != nil {
		return "", nil, pkgErrors.Wrap(pkgErrors.CodeFetchError, "无效的仓库地址", err)
	}

	dest, err := os.MkdirTemp(f.workDir, "qa_scan_")
	if err != nil {
		return "", nil, pkgErrors.Wrap(pkgErrors.CodeFetchError, "创建工作目录失败", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	logger.Info("克隆仓库",
		zap.String("repo", req.RepoURL),
		zap.String("branch", req.Branch),
		zap.String("dest", dest))

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--branch", req.Branch, cloneURL, dest)
	output, err := cmd.CombinedOutput()
	if err != nil {
		f.Cleanup(dest)
		return "", nil, classifyCloneError(string(output), err)
	}

	info, err := headCommit(ctx, dest)
	if err != nil {
		logger.Warn("读取提交信息失败", zap.Error(err))
		info = &CommitInfo{}
	}

	return dest, info, nil
}

// Cleanup 删除工作树
func (f *gitFetcher) Cleanup(path string) {
	if path == "" || path == "/" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("清理工作树失败", zap.String("path", path), zap.Error(err))
	}
}

// buildCloneURL 按提供方把凭据注入克隆地址
func buildCloneURL(req FetchRequest) (string, error) {
	u, err := url.Parse(req.RepoURL)
	if err != nil {
		return "", err
	}

	switch req.AuthType {
	case constants.RepoAuthToken:
		switch req.Provider {
		case constants.GitProviderGitLab:
			u.User = url.UserPassword("oauth2", req.Credential)
		case constants.GitProviderBitbucket:
			u.User = url.UserPassword("x-token-auth", req.Credential)
		default:
			// GitHub 与自建仓库: 令牌作为用户名
			u.User = url.User(req.Credential)
		}
	case constants.RepoAuthBasic:
		u.User = url.UserPassword(req.Username, req.Credential)
	}

	return u.String(), nil
}

// classifyCloneError 拉取失败分类: 认证与分支错误不可重试, 网络错误可重试
func classifyCloneError(output string, err error) error {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "invalid username or password"),
		strings.Contains(lower, "403"):
		return pkgErrors.Wrap(pkgErrors.CodeFetchAuthError, "仓库认证失败", fmt.Errorf("%s: %w", firstLine(output), err))
	case strings.Contains(lower, "remote branch"),
		strings.Contains(lower, "couldn't find remote ref"),
		strings.Contains(lower, "not found in upstream"):
		return pkgErrors.Wrap(pkgErrors.CodeBranchNotFound, "分支不存在", fmt.Errorf("%s: %w", firstLine(output), err))
	default:
		return pkgErrors.Wrap(pkgErrors.CodeFetchError, "仓库拉取失败", fmt.Errorf("%s: %w", firstLine(output), err))
	}
}

func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return "git clone failed"
}

// headCommit 读取HEAD提交
func headCommit(ctx context.Context, repoPath string) (*CommitInfo, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "-1", "--format=%H|%s")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(strings.TrimSpace(string(output)), "|", 2)
	info := &CommitInfo{Hash: parts[0]}
	if len(info.Hash) > 8 {
		info.Hash = info.Hash[:8]
	}
	if len(parts) > 1 {
		info.Message = parts[1]
	}
	return info, nil
}

// ModulePath 返回模块在工作树中的绝对路径
func ModulePath(repoPath, modulePath string) string {
	return filepath.Join(repoPath, filepath.Clean(modulePath))
}
