package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/judgecore/sandbox-core/internal/cgroup"
	"github.com/judgecore/sandbox-core/internal/config"
	"github.com/judgecore/sandbox-core/internal/limits"
	"github.com/judgecore/sandbox-core/internal/logging"
	"github.com/judgecore/sandbox-core/internal/sandbox"
)

// execCmd is the supervisor entry point used by the grading pipeline:
// one invocation, one sandboxed program, one Outcome on stdout and as
// the process exit code.
type execCmd struct {
	configPath string
	execPath   string
	jailPath   string
	inputFile  string
	outputFile string
	whitelist  string
	uid        int
	gid        int
	memBytes   int64
	tasks      int64
	cpuMS      int64
	wallMS     int64
	invocation string
	verbose    bool
}

func (*execCmd) Name() string     { return "exec" }
func (*execCmd) Synopsis() string { return "run one untrusted program under the sandbox core" }
func (*execCmd) Usage() string {
	return "exec -config=judgecore.toml -exec=/a.out -jail=/var/judge/jail/1 -in=in.txt -out=out.txt -uid=60001 -gid=60001\n"
}

func (c *execCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "/etc/judgecore/judgecore.toml", "path to judgecore.toml")
	f.StringVar(&c.execPath, "exec", "", "absolute path of the executable as seen from inside the jail (e.g. /a.out)")
	f.StringVar(&c.jailPath, "jail", "", "absolute host path of the jail directory")
	f.StringVar(&c.inputFile, "in", "", "absolute host path of the input file")
	f.StringVar(&c.outputFile, "out", "", "absolute host path of the output file")
	f.StringVar(&c.whitelist, "whitelist", "", "absolute host path of the syscall whitelist (overrides config default)")
	f.IntVar(&c.uid, "uid", 0, "target uid inside the child")
	f.IntVar(&c.gid, "gid", 0, "target gid inside the child")
	f.Int64Var(&c.memBytes, "mem-bytes", 0, "memory bound in bytes (0 = use config default)")
	f.Int64Var(&c.tasks, "tasks", 0, "task-count bound (0 = use config default)")
	f.Int64Var(&c.cpuMS, "cpu-ms", 0, "CPU-time bound in milliseconds (0 = use config default)")
	f.Int64Var(&c.wallMS, "wall-ms", 0, "wall-time bound in milliseconds (0 = use config default)")
	f.StringVar(&c.invocation, "invocation-id", "", "caller-supplied id for log correlation")
	f.BoolVar(&c.verbose, "verbose", false, "debug-level logging")
}

func (c *execCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logging.New(c.verbose)

	cfg, err := config.Load(c.configPath)
	if err != nil {
		log.WithError(err).Error("load config")
		fmt.Println(sandbox.Failure)
		return outcomeExitStatus(sandbox.Failure)
	}

	req := sandbox.Request{
		ExecPath:     c.execPath,
		JailPath:     c.jailPath,
		InputFile:    c.inputFile,
		OutputFile:   c.outputFile,
		Whitelist:    firstNonEmpty(c.whitelist, cfg.WhitelistPath),
		UID:          uint32(c.uid),
		GID:          uint32(c.gid),
		Limits:       overrideLimits(cfg.DefaultLimits(), c),
		Cgroup:       cfg.CgroupLocs(),
		InvocationID: c.invocation,
	}

	ctrl := cgroup.New(log)
	sup := sandbox.NewSupervisor(ctrl, log, "")
	outcome := sup.Execute(req)

	fmt.Println(outcome)
	return outcomeExitStatus(outcome)
}

func overrideLimits(base limits.ResourceLimits, c *execCmd) limits.ResourceLimits {
	rl := base
	if c.memBytes > 0 {
		rl.MemoryBytes = c.memBytes
	}
	if c.tasks > 0 {
		rl.TaskCount = c.tasks
	}
	if c.cpuMS > 0 {
		rl.CPUTime = time.Duration(c.cpuMS) * time.Millisecond
	}
	if c.wallMS > 0 {
		rl.WallTime = time.Duration(c.wallMS) * time.Millisecond
	}
	return rl
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func outcomeExitStatus(o sandbox.Outcome) subcommands.ExitStatus {
	if o == sandbox.OK {
		return subcommands.ExitSuccess
	}
	return subcommands.ExitStatus(int(o))
}
