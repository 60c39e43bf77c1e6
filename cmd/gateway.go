package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/config"
	"github.com/oasisprotocol/web3c-go/gateway"
)

var (
	gatewayCmd = &cobra.Command{
		Use:   "gateway",
		Short: "Run a mock confidential gateway",
	}

	gatewayServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the confidential JSON-RPC surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGateway(cmd.Context())
		},
	}
)

func runGateway(ctx context.Context) error {
	logger := logging.GetLogger("web3c/cmd")

	store, err := openKeyStore(&cfg.KeyStore)
	if err != nil {
		return err
	}
	defer store.Close()

	kp, err := establishIdentity(rand.Reader, store, &cfg.Gateway, &cfg.KeyStore)
	if err != nil {
		return err
	}
	logger.Info("gateway identity established",
		"public_key", kp.PublicKey,
	)

	opts := []gateway.Option{
		gateway.WithShutdownTimeout(cfg.Gateway.ShutdownTimeout),
	}
	sk, err := cfg.Gateway.ParseAttestationKey()
	if err != nil {
		return err
	}
	if sk != nil {
		opts = append(opts, gateway.WithAttestationKey(sk))
	}
	if cfg.Gateway.Responses != "" {
		raw, err := os.ReadFile(cfg.Gateway.Responses)
		if err != nil {
			return fmt.Errorf("failed to read canned responses: %w", err)
		}
		rsp, err := gateway.ParseResponses(raw)
		if err != nil {
			return err
		}
		opts = append(opts, gateway.WithResponses(rsp))
	}

	gw, err := gateway.New(store, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serveErr := gw.ListenAndServe(ctx, cfg.Gateway.Address)

	if cfg.Metrics.Push.Enabled() {
		if err = pushMetrics(gw.Gatherer(), &cfg.Metrics.Push); err != nil {
			logger.Error("failed to push metrics",
				"err", err,
			)
		}
	}
	return serveErr
}

func pushMetrics(g prometheus.Gatherer, cfg *config.MetricsPush) error {
	return push.New(cfg.Address, cfg.JobName).
		Grouping("instance", cfg.InstanceLabel).
		Gatherer(g).
		Push()
}

func init() {
	gatewayServeCmd.Flags().AddFlagSet(gatewayFlags)
	gatewayCmd.AddCommand(gatewayServeCmd)
}
