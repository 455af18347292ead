// Command judgecore is the CLI entry point for the sandbox-execution
// core: "exec" is the supervisor entry point used by the grading
// pipeline, "init" is the internal re-exec target that performs the
// child bootstrap of spec.md §4.1.2 inside a fresh PID namespace.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&execCmd{}, "")
	subcommands.Register(&initCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
