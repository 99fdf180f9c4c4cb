package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(ro *rootOpts) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if writePath != "" {
				if err := ro.cfg.SaveToFile(writePath); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", writePath)
				return nil
			}

			out, err := yaml.Marshal(ro.cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "Write the effective configuration to a file")

	return cmd
}
