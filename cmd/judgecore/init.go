package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/judgecore/sandbox-core/internal/logging"
	"github.com/judgecore/sandbox-core/internal/sandbox"
)

// initCmd is the internal re-exec target. It is never invoked directly
// by an operator; the supervisor launches "judgecore init" with
// CLONE_NEWPID and three donated fds (ready edge, go edge, request).
type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "internal: re-exec child bootstrap, do not call directly" }
func (*initCmd) Usage() string {
	return "init\n  Performs the chroot/privilege-drop/seccomp/exec bootstrap inside a fresh PID namespace.\n"
}
func (*initCmd) SetFlags(f *flag.FlagSet) {}

func (*initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// RunChildBootstrap exits the process itself (success: via exec
	// replacing the image; failure: via os.Exit(bootstrapFailedExitCode)),
	// so this never actually returns to subcommands' Execute machinery.
	sandbox.RunChildBootstrap(logging.New(false))
	return subcommands.ExitFailure
}
