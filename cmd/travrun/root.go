package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "travrun",
		Short:         "Travrun executes Travis CI manifests locally",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("root", "", "repository root (defaults to the working directory)")
	persistent.String("manifest", "", "manifest file to load (defaults to .travis.yml at the root)")
	persistent.StringArray("python", nil, "matrix version filter (repeatable)")
	persistent.StringArray("only-step", nil, "include only matching steps")
	persistent.StringArray("skip-step", nil, "exclude matching steps")
	persistent.String("tag", "", "tag ref associated with the build")
	persistent.String("branch", "", "branch associated with the build")
	persistent.Bool("sequential", false, "run matrix entries one at a time")
	persistent.Bool("dry-run", false, "print commands without executing them")
	persistent.BoolP("verbose", "v", false, "stream command output in real time")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Int("retries", 0, "attempt budget for retryable install steps")
	persistent.String("cache-dir", "", "dependency cache directory")
	persistent.Bool("no-cache", false, "disable the dependency cache")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
