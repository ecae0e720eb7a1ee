package runner

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	pkgErrors "qa-platform/pkg/errors"
)

// SSHConfig 远端执行机连接配置
type SSHConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey string // PEM, 优先于密码
	WorkDir    string // 远端工作目录, 默认 /tmp/qa-runner
	RobotBin   string
}

// sshRunner 通过SSH在远端执行机运行 robot
type sshRunner struct {
	cfg     SSHConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewSSHRunner 创建SSH执行器
func NewSSHRunner(cfg SSHConfig, timeout time.Duration, logger *zap.Logger) Runner {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "/tmp/qa-runner"
	}
	if cfg.RobotBin == "" {
		cfg.RobotBin = "robot"
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &sshRunner{cfg: cfg, timeout: timeout, logger: logger}
}

func (r *sshRunner) Start(ctx context.Context, req *Request) (Execution, error) {
	client, err := r.dial()
	if err != nil {
		return nil, err
	}

	runDir := path.Join(r.cfg.WorkDir, fmt.Sprintf("run_%d", req.RunID))
	outDir := path.Join(runDir, "output")
	if err := runCommand(client, fmt.Sprintf("mkdir -p %s", shellQuote(runDir))); err != nil {
		client.Close()
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "创建远端执行目录失败", err)
	}

	for _, a := range req.Artifacts {
		remote := path.Join(runDir, sanitizeName(a.Name))
		if err := uploadFile(client, remote, a.Content); err != nil {
			client.Close()
			return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "上传测试产物失败", err)
		}
	}

	cmdline := r.robotCommand(req, runDir, outDir)
	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "创建SSH会话失败", err)
	}
	if err := session.Start(cmdline); err != nil {
		session.Close()
		client.Close()
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "启动远端robot失败", err)
	}
	r.logger.Info("远端robot已启动",
		zap.Int64("run_id", req.RunID),
		zap.String("host", r.cfg.Host),
		zap.String("run_dir", runDir))

	exe := &sshExecution{
		client:    client,
		session:   session,
		outDir:    outDir,
		startedAt: time.Now(),
		timeout:   r.timeout,
		done:      make(chan struct{}),
	}
	go func() {
		exe.waitErr = session.Wait()
		close(exe.done)
	}()
	return exe, nil
}

func (r *sshRunner) dial() (*ssh.Client, error) {
	var auth []ssh.AuthMethod
	if r.cfg.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(r.cfg.PrivateKey))
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "解析SSH私钥失败", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if r.cfg.Password != "" {
		auth = append(auth, ssh.Password(r.cfg.Password))
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port), &ssh.ClientConfig{
		User:            r.cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "连接执行机失败", err)
	}
	return client, nil
}

func (r *sshRunner) robotCommand(req *Request, runDir, outDir string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "cd %s && timeout %d %s --outputdir %s --loglevel INFO",
		shellQuote(runDir), int(r.timeout.Seconds()), r.cfg.RobotBin, shellQuote(outDir))

	vars := make(map[string]string, len(req.Variables)+1)
	for k, v := range req.Variables {
		vars[k] = v
	}
	if req.Headless {
		if _, ok := vars["BROWSER"]; !ok {
			vars["BROWSER"] = "headlesschrome"
		}
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, " --variable %s", shellQuote(k+":"+vars[k]))
	}
	for _, tag := range req.IncludeTags {
		fmt.Fprintf(&buf, " --include %s", shellQuote(tag))
	}
	for _, tag := range req.ExcludeTags {
		fmt.Fprintf(&buf, " --exclude %s", shellQuote(tag))
	}
	fmt.Fprintf(&buf, " %s", shellQuote(runDir))
	return buf.String()
}

type sshExecution struct {
	client    *ssh.Client
	session   *ssh.Session
	outDir    string
	startedAt time.Time
	timeout   time.Duration

	done    chan struct{}
	waitErr error

	cancelOnce sync.Once
	closeOnce  sync.Once
}

func (e *sshExecution) Await(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
	}
	defer e.close()

	data, err := fetchFile(e.client, path.Join(e.outDir, "output.xml"))
	if err != nil {
		if e.waitErr != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "远端robot执行失败且无输出", e.waitErr)
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "拉取output.xml失败", err)
	}

	results, err := ParseOutputXML(data)
	if err != nil {
		return nil, err
	}
	logRef := path.Join(e.outDir, "log.html")
	for i := range results {
		results[i].LogRef = logRef
	}

	return &Report{
		Results:    results,
		StartedAt:  e.startedAt,
		FinishedAt: time.Now(),
		OutputPath: path.Join(e.outDir, "output.xml"),
	}, nil
}

func (e *sshExecution) Cancel(ctx context.Context) error {
	var err error
	e.cancelOnce.Do(func() {
		err = e.session.Signal(ssh.SIGKILL)
	})
	return err
}

func (e *sshExecution) BuildNumber() int { return 0 }
func (e *sshExecution) BuildURL() string { return "" }

func (e *sshExecution) close() {
	e.closeOnce.Do(func() {
		e.session.Close()
		e.client.Close()
	})
}

// runCommand 执行单条远端命令
func runCommand(client *ssh.Client, cmd string) error {
	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	return session.Run(cmd)
}

// uploadFile 通过 stdin 重定向写入远端文件
func uploadFile(client *ssh.Client, remotePath, content string) error {
	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	session.Stdin = bytes.NewBufferString(content)
	return session.Run(fmt.Sprintf("cat > %s", shellQuote(remotePath)))
}

// fetchFile 读取远端文件内容
func fetchFile(client *ssh.Client, remotePath string) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return session.Output(fmt.Sprintf("cat %s", shellQuote(remotePath)))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
