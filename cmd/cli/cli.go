package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/endpoint"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath      string
	logLevel        int8
	zkServers       []string
	zkTimeout       uint
	connectTimeout  uint
	authScheme      string
	authCredentials string
	metricsAddr     string
)

var zkwatchCmd = &cobra.Command{
	Use:          "zkwatch [command] (flags)",
	Short:        "watch and write zookeeper nodes",
	SilenceUsage: true,
}

func Main() {
	zkwatchCmd.AddCommand(
		NewWatchCmd(),
		NewWriteCmd(),
		NewDeleteCmd(),
	)

	if err := zkwatchCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// addCommonFlags registers the connection flags of every command and binds them to cfg.
func addCommonFlags(flags *pflag.FlagSet, cfg config.EndpointConfig) {
	flags.StringVarP(&configPath, "config-path", "i", "", "endpoint config file (yaml or toml)")
	flags.Int8Var(&logLevel, "log-level", int8(zapcore.InfoLevel), "set log level [-1=debug|0=info|1=warning|2=error]")
	flags.StringSliceVar(&zkServers, "zk-servers", []string{constants.DefaultZKServer}, "zookeeper servers, used when the uri names none")
	flags.UintVar(&zkTimeout, "zk-timeout", uint(constants.DefaultSessionTimeout/time.Millisecond), "zookeeper session timeout in ms")
	flags.UintVar(&connectTimeout, "connect-timeout", 0, "how long to wait for the session in ms, 0 waits forever")
	flags.StringVar(&authScheme, "auth-scheme", "", "zookeeper auth scheme, e.g. digest")
	flags.StringVar(&authCredentials, "auth-credentials", "", "zookeeper auth credentials, e.g. user:password")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	cfg.BindPFlag("log-level", flags.Lookup("log-level"))
	cfg.BindPFlag("zookeeper.servers", flags.Lookup("zk-servers"))
	cfg.BindPFlag("zookeeper.timeout", flags.Lookup("zk-timeout"))
	cfg.BindPFlag("zookeeper.connect-timeout", flags.Lookup("connect-timeout"))
	cfg.BindPFlag("zookeeper.auth.scheme", flags.Lookup("auth-scheme"))
	cfg.BindPFlag("zookeeper.auth.credentials", flags.Lookup("auth-credentials"))
	cfg.BindPFlag("metrics-addr", flags.Lookup("metrics-addr"))
}

// newEndpoint layers the config file, the flags and the uri, in increasing precedence.
func newEndpoint(cfg config.EndpointConfig, uri string, collector *metrics.Collector) (*endpoint.Endpoint, error) {
	if configPath != "" {
		var err error
		if cfg, err = cfg.Load(configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyURI(uri); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel())
	return endpoint.NewEndpoint(cfg, endpoint.WithMetrics(collector))
}

// serveMetrics exposes the collector on addr until the returned function is called.
func serveMetrics(addr string, collector *metrics.Collector) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("failed to shut down metrics server", zap.Error(err))
		}
	}
}

func printResult(prefix string, err error) {
	if err != nil {
		fmt.Printf("%s failed: %v\n", prefix, err)
		return
	}
	fmt.Printf("%s done\n", prefix)
}
