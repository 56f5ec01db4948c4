/*
Copyright (c) 2017 Alexander Klauer

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/container"
	"github.com/eaton-coreymutter/iotech-c-utils/deviceapi"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

type runOptions struct {
	*rootOptions
	containerName string
	metricsAddr   string
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the scheduler container and serve until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts)
		},
	}

	cmd.Flags().StringVar(&opts.containerName, "container", "main", "name of the top-level container to load from config-dir")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on (empty disables)")

	return cmd
}

func runRun(opts *runOptions) error {
	loader := config.NewAferoLoader(afero.NewOsFs(), opts.configDir)
	proc := container.NewProcess(loader, nil)

	proc.RegisterFactory(container.LoggerFactory{})
	proc.RegisterFactory(container.SchedulerFactory{})
	proc.RegisterFactory(deviceapi.Factory{})

	c, err := proc.Alloc(opts.containerName)
	if err != nil {
		return fmt.Errorf("allocating container %q: %w", opts.containerName, err)
	}
	defer c.Free()

	if err := c.Init(); err != nil {
		return fmt.Errorf("initializing container %q: %w", opts.containerName, err)
	}

	var log logging.Logger = logging.NewConsole("info")
	if comp := c.FindComponent("Logger"); comp != nil {
		if lp, ok := comp.(container.LoggerProvider); ok {
			log = lp.Logger()
		}
	}

	if opts.metricsAddr != "" {
		metricsServer := &http.Server{Addr: opts.metricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics http server exited", logging.Err(err))
			}
		}()
		defer metricsServer.Close()
	}

	if err := c.Start(); err != nil {
		return fmt.Errorf("starting container %q: %w", opts.containerName, err)
	}
	started := time.Now()
	log.Info("container started", logging.String("container", opts.containerName))

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("systemd readiness notification failed", logging.Err(err))
	} else if ok {
		log.Debug("systemd readiness notification delivered")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down",
		logging.String("signal", sig.String()),
		logging.String("uptime", humanize.RelTime(started, time.Now(), "", "")),
	)

	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Warn("systemd stopping notification failed", logging.Err(err))
	}

	if err := c.Stop(); err != nil {
		return fmt.Errorf("stopping container %q: %w", opts.containerName, err)
	}
	return nil
}
