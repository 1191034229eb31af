// Package main provides the entry point for the fetch pass-through server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/proxy"
)

// Version is set via ldflags
var Version = "dev"

func main() {
	var (
		configPath = flag.String("config", config.DefaultConfigPath, "Path to config file")
		port       = flag.Int("port", 0, "Override listen port")
		address    = flag.String("address", "", "Override listen address")
		charset    = flag.String("charset", "", "Override the charset assumed for undeclared pages")
		allowed    = flag.String("allow", "", "Comma separated hosts that may be fetched; overrides config")
	)
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.ProxyServer.Port = *port
	}
	if *address != "" {
		cfg.ProxyServer.Address = *address
	}
	if *charset != "" {
		cfg.ProxyServer.DefaultCharset = *charset
	}
	if *allowed != "" {
		cfg.ProxyServer.AllowedHosts = strings.Split(*allowed, ",")
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLoggerWithOutput(cfg.App.LogLevel, cfg.App.Environment, os.Stdout)

	server, err := proxy.NewServer(cfg.ProxyServer, appLog, Version)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create proxy server")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	appLog.WithFields(logrus.Fields{
		"address":         cfg.ProxyServer.ListenAddress(),
		"default_charset": cfg.ProxyServer.DefaultCharset,
		"allowed_hosts":   cfg.ProxyServer.AllowedHosts,
	}).Info("Proxy server started")

	select {
	case sig := <-sigChan:
		appLog.WithField("signal", sig).Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			appLog.WithError(err).Fatal("Proxy server failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLog.WithError(err).Error("Error during proxy server shutdown")
	}
	appLog.Info("Proxy server shut down")
}
