package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/recurrent/internal/envconfig"
)

const version = "v0.1.0"

// appendEnvDocs adds an environment variable section to a command's usage
// output.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the root command with all subcommands attached.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "recurrent",
		Short:         "Recurrent language model trainer",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	trainCmd := newTrainCmd()
	generateCmd := newGenerateCmd()
	runsCmd := newRunsCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(trainCmd, []envconfig.EnvVar{
		envVars["RECURRENT_DEBUG"],
		envVars["RECURRENT_STORE"],
		envVars["RECURRENT_STORE_PATH"],
	})
	appendEnvDocs(runsCmd, []envconfig.EnvVar{
		envVars["RECURRENT_STORE"],
		envVars["RECURRENT_STORE_PATH"],
	})

	rootCmd.AddCommand(
		trainCmd,
		generateCmd,
		runsCmd,
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.ExactArgs(0),
		Run:   versionHandler,
	}
}

func versionHandler(_ *cobra.Command, _ []string) {
	fmt.Printf("recurrent version is %s\n", version)
}
