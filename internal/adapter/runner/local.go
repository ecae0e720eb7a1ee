package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// localRunner 在本机执行 robot 命令
type localRunner struct {
	robotBin string
	workDir  string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLocalRunner 创建本地执行器
// workDir 下按 run_<id> 建立独立工作目录
func NewLocalRunner(robotBin, workDir string, timeout time.Duration, logger *zap.Logger) Runner {
	if robotBin == "" {
		robotBin = "robot"
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &localRunner{
		robotBin: robotBin,
		workDir:  workDir,
		timeout:  timeout,
		logger:   logger,
	}
}

func (r *localRunner) Start(ctx context.Context, req *Request) (Execution, error) {
	runDir := filepath.Join(r.workDir, fmt.Sprintf("run_%d", req.RunID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "创建执行目录失败", err)
	}

	for _, a := range req.Artifacts {
		path := filepath.Join(runDir, filepath.Base(a.Name))
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "写入测试产物失败", err)
		}
	}

	outDir := filepath.Join(runDir, "output")
	args := buildRobotArgs(req, outDir)
	args = append(args, runDir)

	execCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
	cmd := exec.CommandContext(execCtx, r.robotBin, args...)
	cmd.Dir = runDir

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "启动robot进程失败", err)
	}
	r.logger.Info("robot进程已启动",
		zap.Int64("run_id", req.RunID),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("out_dir", outDir))

	exe := &localExecution{
		cmd:       cmd,
		cancelRun: cancel,
		outDir:    outDir,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	go func() {
		exe.waitErr = cmd.Wait()
		close(exe.done)
	}()
	return exe, nil
}

// buildRobotArgs 组装 robot 命令行参数, 顺序固定
func buildRobotArgs(req *Request, outDir string) []string {
	args := []string{"--outputdir", outDir, "--loglevel", "INFO"}

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
		args = append(args, "--variable", k+":"+vars[k])
	}

	for _, tag := range req.IncludeTags {
		args = append(args, "--include", tag)
	}
	for _, tag := range req.ExcludeTags {
		args = append(args, "--exclude", tag)
	}
	return args
}

type localExecution struct {
	cmd       *exec.Cmd
	cancelRun context.CancelFunc
	outDir    string
	startedAt time.Time

	done    chan struct{}
	waitErr error

	cancelOnce sync.Once
}

func (e *localExecution) Await(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
	}

	outputPath := filepath.Join(e.outDir, "output.xml")
	data, err := os.ReadFile(outputPath)
	if err != nil {
		// robot 以失败用例数为退出码, 没有 output.xml 才是执行层故障
		if e.waitErr != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "robot执行失败且无输出", e.waitErr)
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "读取output.xml失败", err)
	}

	results, err := ParseOutputXML(data)
	if err != nil {
		return nil, err
	}
	attachRefs(results, e.outDir)

	return &Report{
		Results:    results,
		StartedAt:  e.startedAt,
		FinishedAt: time.Now(),
		OutputPath: outputPath,
	}, nil
}

func (e *localExecution) Cancel(ctx context.Context) error {
	e.cancelOnce.Do(e.cancelRun)
	return nil
}

func (e *localExecution) BuildNumber() int { return 0 }
func (e *localExecution) BuildURL() string { return "" }

// attachRefs 关联 log.html 与截图文件
func attachRefs(results []CaseResult, outDir string) {
	logPath := filepath.Join(outDir, "log.html")
	if _, err := os.Stat(logPath); err != nil {
		logPath = ""
	}
	shots, _ := filepath.Glob(filepath.Join(outDir, "selenium-screenshot-*.png"))
	sort.Strings(shots)

	shot := 0
	for i := range results {
		results[i].LogRef = logPath
		// 截图按失败用例顺序对应
		if results[i].Status != constants.ResultStatusPass && shot < len(shots) {
			results[i].ScreenshotRef = shots[shot]
			shot++
		}
	}
}

// sanitizeName 供远端路径使用的安全名称
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
