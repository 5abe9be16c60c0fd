package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/background"
	"github.com/OpenJobDescription/adaptor-runtime-go/frontend"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/rendezvous"
	"github.com/OpenJobDescription/adaptor-runtime-go/transport"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or control the adaptor runtime's background process",
	}
	cmd.AddCommand(newServeCmd(), newDaemonStartCmd(), newDaemonRunCmd(), newDaemonStopCmd())
	return cmd
}

func absConnectionFile(path string) (string, error) {
	if path == "" {
		return "", newArgError("--connection-file is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newArgError("failed to resolve --connection-file %q: %w", path, err)
	}
	return abs, nil
}

// newServeCmd implements the hidden `_serve` command: it constructs the
// listener, buffer, runner, and background.Backend in this process and
// blocks until shutdown, per spec.md §4.8/§6. `daemon start` re-execs the
// program with this subcommand to produce the backend process.
func newServeCmd() *cobra.Command {
	var initDataArg, pathMappingArg, connectionFile string

	cmd := &cobra.Command{
		Use:    "_serve",
		Short:  "Run the backend server in the foreground (internal use)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			connFile, err := absConnectionFile(connectionFile)
			if err != nil {
				return err
			}
			initData, err := loadJSONArg(initDataArg)
			if err != nil {
				return newArgError("%w", err)
			}
			pathMappingRules, err := loadJSONArg(pathMappingArg)
			if err != nil {
				return newArgError("%w", err)
			}

			socketPath, err := rendezvous.SocketPath("runtime")
			if err != nil {
				return err
			}
			listener, err := transport.Listen(socketPath)
			if err != nil {
				return err
			}

			buffer := logbuffer.NewMemory(nil)
			logger := log.New(io.MultiWriter(os.Stderr, logbuffer.NewHandler(buffer)), "", 0)
			a := newSampleAdaptor(initData, pathMappingRules, logger)
			runner := adaptor.NewRunner(a, logger)

			backend, err := background.NewBackend(listener, runner, buffer, connFile, logger)
			if err != nil {
				return err
			}
			return backend.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&initDataArg, "init-data", "", "data to pass to the adaptor during initialization (JSON or file://path)")
	cmd.Flags().StringVar(&pathMappingArg, "path-mapping-rules", "", "path mapping rules to make available to the adaptor (JSON or file://path)")
	cmd.Flags().StringVar(&connectionFile, "connection-file", "", "file path to write backend connection settings to")
	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	var initDataArg, pathMappingArg, connectionFile string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Spawn the backend process and start the adaptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			connFile, err := absConnectionFile(connectionFile)
			if err != nil {
				return err
			}

			exe, err := os.Executable()
			if err != nil {
				return err
			}
			extraArgs := []string{"--init-data", initDataArg, "--path-mapping-rules", pathMappingArg}

			client := frontend.NewClient(frontend.Options{ConnectionFilePath: connFile})
			defer client.InstallSignalHandler()()

			ctx := context.Background()
			if err := client.Init(ctx, exe, extraArgs); err != nil {
				return err
			}
			return client.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&initDataArg, "init-data", "", "data to pass to the adaptor during initialization (JSON or file://path)")
	cmd.Flags().StringVar(&pathMappingArg, "path-mapping-rules", "", "path mapping rules to make available to the adaptor (JSON or file://path)")
	cmd.Flags().StringVar(&connectionFile, "connection-file", "", "file path to the connection file for use in background mode")
	return cmd
}

func newDaemonRunCmd() *cobra.Command {
	var runDataArg, connectionFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task on the already-started backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			connFile, err := absConnectionFile(connectionFile)
			if err != nil {
				return err
			}
			runData, err := loadJSONArg(runDataArg)
			if err != nil {
				return newArgError("%w", err)
			}

			client := frontend.NewClient(frontend.Options{ConnectionFilePath: connFile})
			defer client.InstallSignalHandler()()
			if err := client.Attach(); err != nil {
				return err
			}
			return client.Run(context.Background(), runData)
		},
	}

	cmd.Flags().StringVar(&runDataArg, "run-data", "", "data to pass to the adaptor when it runs (JSON or file://path)")
	cmd.Flags().StringVar(&connectionFile, "connection-file", "", "file path to the connection file for use in background mode")
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	var connectionFile string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the backend and shut it down",
		RunE: func(cmd *cobra.Command, args []string) error {
			connFile, err := absConnectionFile(connectionFile)
			if err != nil {
				return err
			}

			client := frontend.NewClient(frontend.Options{ConnectionFilePath: connFile})
			defer client.InstallSignalHandler()()
			if err := client.Attach(); err != nil {
				return err
			}
			if err := client.Stop(context.Background()); err != nil {
				return err
			}
			return client.Shutdown(context.Background())
		},
	}

	cmd.Flags().StringVar(&connectionFile, "connection-file", "", "file path to the connection file for use in background mode")
	return cmd
}
