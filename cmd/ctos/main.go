package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"ctos/internal/config"
	"ctos/internal/gateway/binance"
	"ctos/internal/gateway/notifier"
	"ctos/internal/logger"
	"ctos/internal/market"
	"ctos/internal/transport/httpapi"
	"ctos/internal/watcher"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger.SetLevel(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := binance.New(binance.Config{
		APIKey:       cfg.Binance.APIKey,
		APISecret:    cfg.Binance.APISecret,
		RESTBaseURL:  cfg.Binance.RESTBaseURL,
		HTTPTimeout:  cfg.Binance.HTTPTimeout,
		ProxyEnabled: cfg.Binance.ProxyEnabled,
		RESTProxyURL: cfg.Binance.RESTProxyURL,
		WSProxyURL:   cfg.Binance.WSProxyURL,
	})
	if err != nil {
		log.Fatalf("building binance source: %v", err)
	}
	defer source.Close()

	var notify watcher.Notifier = notifier.Nop{}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notify = notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	rules, err := watcher.CompileRules(cfg.Rules)
	if err != nil {
		log.Fatalf("compiling rules: %v", err)
	}

	keys := streamKeys(cfg.Watch)

	w := watcher.New(source, notify, rules)

	api, err := httpapi.New(cfg.App.HTTPAddr, w)
	if err != nil {
		log.Fatalf("building http api: %v", err)
	}

	// Rule and watch-list edits land without a restart: the watcher tears its
	// subscription down and reseeds with the fresh config.
	if err := config.WatchFile(*cfgPath, func(fresh *config.Config) {
		freshRules, err := watcher.CompileRules(fresh.Rules)
		if err != nil {
			logger.Warnf("[main] ignoring config change, bad rules: %v", err)
			return
		}
		if err := w.Reload(freshRules, streamKeys(fresh.Watch), fresh.Watch.CacheSize); err != nil {
			logger.Warnf("[main] ignoring config change: %v", err)
			return
		}
		logger.SetLevel(fresh.App.LogLevel)
	}); err != nil {
		logger.Warnf("[main] config watch unavailable: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, keys, cfg.Watch.CacheSize) })
	g.Go(func() error { return api.Start(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("runtime failure: %v", err)
	}
	logger.Infof("[main] shutdown complete")
}

func streamKeys(watch config.WatchConfig) []market.StreamKey {
	keys := make([]market.StreamKey, 0, len(watch.Symbols)*len(watch.Intervals))
	for _, sym := range watch.Symbols {
		for _, iv := range watch.Intervals {
			keys = append(keys, market.StreamKey{Symbol: sym, Interval: iv})
		}
	}
	return keys
}
