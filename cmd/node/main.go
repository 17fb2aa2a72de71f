// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command node wires the mempool, propagation bus, notifier hub,
// topology registry and gRPC server into a runnable process, matching
// the teacher's cobra-based cmd/consensus entry point in spirit: one
// root command, subcommands for the operational variants it supports.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/log"

	"github.com/luxfi/jorm/config"
	"github.com/luxfi/jorm/fragment"
	"github.com/luxfi/jorm/intercom"
	"github.com/luxfi/jorm/mempool"
	"github.com/luxfi/jorm/network/server"
	"github.com/luxfi/jorm/network/wire"
	"github.com/luxfi/jorm/networking/grpc/grpcutils"
	"github.com/luxfi/jorm/notifier"
	"github.com/luxfi/jorm/propagation"
	"github.com/luxfi/jorm/topology"
	"github.com/luxfi/jorm/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jorm-node",
	Short: "jorm node: mempool, peer sync and vote-plan services for a stake-based consensus chain",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the node's YAML configuration file")
	rootCmd.AddCommand(runCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the node version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.DefaultVersion())
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
}

// devSigner is a stand-in Signer/server.Signer for development runs
// where no keystore is wired; it is never appropriate for a networked
// deployment and exists only so `jorm-node run` has something to
// satisfy network/server.New's Signer parameter out of the box.
type devSigner struct{}

func (devSigner) Sign(nonce []byte) ([]byte, error) {
	sig := make([]byte, len(nonce))
	copy(sig, nonce)
	return sig, nil
}

func (devSigner) Verify(peerAddr string, signedNonce []byte) error { return nil }

func run(ctx context.Context, configPath string) error {
	logger := log.NewNoOpLogger().With("component", "node")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	block0ID, err := cfg.Block0ID()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()

	logs := fragment.NewLogs()
	bus := propagation.New(logger)
	pool := mempool.New(cfg.Mempool.MaxEntries, logs, bus, logger)
	registry.MustRegister(pool.Collector())

	hub := notifier.New(block0ID, int(cfg.Notifier.MaxConnections), logger)
	registry.MustRegister(hub.Collector())

	topo := topology.New(cfg.ListenAddress)

	clientBox := intercom.NewMessageBox[server.ClientRequest](64)
	svc := server.New(block0ID, devSigner{}, topo, pool, bus, clientBox, cfg.Network.RequestTimeout, logger)

	grpcServer := grpcutils.NewServer()
	wire.RegisterNodeServer(grpcServer, svc)
	closer := &grpcutils.ServerCloser{}
	closer.Add(grpcServer)

	listener, err := listen(cfg.ListenAddress)
	if err != nil {
		return err
	}

	go func() {
		if err := grpcutils.Serve(listener, grpcServer); err != nil {
			logger.Error("grpc server stopped", "err", err)
		}
	}()

	router := mux.NewRouter()
	hub.Mount(router, "/notifications")
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: httpAddr(cfg.ListenAddress), Handler: router}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", "err", err)
		}
	}()

	logger.Info("node started", "listen", cfg.ListenAddress)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-sigCh:
	}

	logger.Info("node shutting down")
	closer.Close()
	bus.Shutdown()
	return httpServer.Close()
}
