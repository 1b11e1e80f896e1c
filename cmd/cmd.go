// Package cmd provides the demo CLI driver: a root command carrying profiling flags and a run
// subcommand that loads a YAML config, brings up the Manager, and serves metrics.
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "logcore runs an in-process logging engine demo driver", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("run ...", "Load a config and run the logging engine until terminated", &runCmd, runCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	// trigger init

	config.Execute()
}
