package dbexec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	pkgErrors "qa-platform/pkg/errors"
)

// Target 远端数据库所在环境
type Target struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey string // PEM, 优先于密码
	Database   string
}

// Executor 在客户环境上执行SQL与命令, 健康检查的探测通道
type Executor interface {
	// Query 通过psql执行查询, 返回无表头无对齐的标准输出
	Query(ctx context.Context, target Target, query string) (string, error)
	// Run 执行shell命令, 返回合并输出
	Run(ctx context.Context, target Target, command string) (string, error)
}

type sshExecutor struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewSSHExecutor 创建SSH执行通道
func NewSSHExecutor(timeout time.Duration, logger *zap.Logger) Executor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &sshExecutor{timeout: timeout, logger: logger}
}

func (e *sshExecutor) Query(ctx context.Context, target Target, query string) (string, error) {
	cmd := fmt.Sprintf("psql --no-align --tuples-only --dbname %s --command %s",
		shellQuote(target.Database), shellQuote(query))
	return e.Run(ctx, target, cmd)
}

func (e *sshExecutor) Run(ctx context.Context, target Target, command string) (string, error) {
	client, err := e.dial(target)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeHealthError, "创建SSH会话失败", err)
	}
	defer session.Close()

	type execResult struct {
		output []byte
		err    error
	}
	done := make(chan execResult, 1)
	go func() {
		output, err := session.CombinedOutput(command)
		done <- execResult{output: output, err: err}
	}()

	select {
	case res := <-done:
		output := strings.TrimSpace(string(res.output))
		if res.err != nil {
			if output != "" {
				return output, pkgErrors.Wrap(pkgErrors.CodeHealthError, output, res.err)
			}
			return output, pkgErrors.Wrap(pkgErrors.CodeHealthError, "远端命令执行失败", res.err)
		}
		return output, nil
	case <-ctx.Done():
		session.Close()
		return "", pkgErrors.Wrap(pkgErrors.CodeHealthError, "远端命令执行超时", ctx.Err())
	case <-time.After(e.timeout):
		session.Close()
		return "", pkgErrors.New(pkgErrors.CodeHealthError, "远端命令执行超时")
	}
}

func (e *sshExecutor) dial(target Target) (*ssh.Client, error) {
	if target.Host == "" {
		return nil, pkgErrors.New(pkgErrors.CodeHealthError, "目标环境未配置SSH地址")
	}
	port := target.Port
	if port <= 0 {
		port = 22
	}

	var auth []ssh.AuthMethod
	if target.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(target.PrivateKey))
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeHealthError, "解析SSH私钥失败", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if target.Password != "" {
		auth = append(auth, ssh.Password(target.Password))
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", target.Host, port), &ssh.ClientConfig{
		User:            target.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeHealthError, "连接目标环境失败", err)
	}
	return client, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
