package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
)

func newRunCmd() *cobra.Command {
	var initDataArg, pathMappingArg, runDataArg string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the adaptor synchronously, in-process, with no IPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			initData, err := loadJSONArg(initDataArg)
			if err != nil {
				return newArgError("%w", err)
			}
			pathMappingRules, err := loadJSONArg(pathMappingArg)
			if err != nil {
				return newArgError("%w", err)
			}
			runData, err := loadJSONArg(runDataArg)
			if err != nil {
				return newArgError("%w", err)
			}

			logger := log.New(os.Stdout, "", 0)
			a := newSampleAdaptor(initData, pathMappingRules, logger)
			return adaptor.RunSynchronous(a, runData, logger)
		},
	}

	cmd.Flags().StringVar(&initDataArg, "init-data", "", "data to pass to the adaptor during initialization (JSON or file://path)")
	cmd.Flags().StringVar(&pathMappingArg, "path-mapping-rules", "", "path mapping rules to make available to the adaptor (JSON or file://path)")
	cmd.Flags().StringVar(&runDataArg, "run-data", "", "data to pass to the adaptor when it runs (JSON or file://path)")
	return cmd
}
