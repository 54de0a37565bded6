package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cwatch/internal/application/service"
	"cwatch/internal/application/usecase/monitor"
	"cwatch/internal/domain/model"
	"cwatch/internal/infrastructure/config"
	"cwatch/internal/infrastructure/logger"
	"cwatch/internal/infrastructure/svc"
	"cwatch/internal/interfaces/httpapi"

	"github.com/rs/zerolog/log"
)

const usage = `usage: cwatch [-config path] <command> [args]

commands:
  list                     show all watchlists (* marks the selected one)
  create <name>            create a watchlist and select it
  delete <list>            delete a watchlist
  select <list>            select a watchlist
  add <symbol> [list]      add a coin to a watchlist (default: selected)
  remove <list> <symbol>   remove a coin from a watchlist
  search <query>           search coins quoted in the configured quote asset
  watch                    stream live prices for the selected watchlist
  serve                    watch and expose the HTTP API
`

func main() {
	logger.SetupWith(os.Stderr, "info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.SetupWith(os.Stderr, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer sc.Close()

	if err := run(ctx, sc, args[0], args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		sc.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, sc *svc.ServiceContext, cmd string, args []string) error {
	store := sc.Watchlists

	switch cmd {
	case "list":
		coll := store.Snapshot()
		if len(coll.Lists) == 0 {
			fmt.Println("No watchlists yet. Create one to get started!")
			return nil
		}
		for _, w := range coll.Lists {
			mark := " "
			if w.ID == coll.Selected {
				mark = "*"
			}
			fmt.Printf("%s %s  %s  [%s]\n", mark, w.ID, w.Name, strings.Join(w.Symbols, ", "))
		}
		return nil

	case "create":
		id, err := store.Create(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(id)
		return persistErr(store)

	case "delete":
		id, err := resolveList(store, args, 0)
		if err != nil {
			return err
		}
		return outcomeErr(store, store.Delete(ctx, id))

	case "select":
		id, err := resolveList(store, args, 0)
		if err != nil {
			return err
		}
		return outcomeErr(store, store.Select(ctx, id))

	case "add":
		if len(args) == 0 {
			return errors.New("missing symbol")
		}
		var out model.Outcome
		if len(args) > 1 {
			id, err := resolveList(store, args, 1)
			if err != nil {
				return err
			}
			out = store.AddSymbol(ctx, id, args[0])
		} else {
			out = store.AddToSelected(ctx, args[0])
		}
		sev, msg := service.AddMessage(args[0], out)
		sc.Sink.Notify(sev, msg)
		return persistErr(store)

	case "remove":
		if len(args) < 2 {
			return errors.New("usage: remove <list> <symbol>")
		}
		id, err := resolveList(store, args, 0)
		if err != nil {
			return err
		}
		return outcomeErr(store, store.RemoveSymbol(ctx, id, args[1]))

	case "search":
		results, err := sc.Search.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Print(monitor.NewFormatter(sc.Config.App.NoColor).RenderResults(results))
		return nil

	case "watch":
		log.Info().
			Str("feed", sc.Market.FeedName()).
			Int("symbols", len(store.Symbols())).
			Int("print_every_min", sc.Config.App.PrintEveryMin).
			Msg("cwatch started")
		return monitor.NewService(sc.BuildMonitorServiceDeps()).Run(ctx)

	case "serve":
		errCh := make(chan error, 1)
		go func() {
			errCh <- monitor.NewService(sc.BuildMonitorServiceDeps()).Run(ctx)
		}()
		api := httpapi.New(store, sc.Search, sc.Cache)
		if err := api.Run(ctx, sc.Config.HTTP.Addr); err != nil {
			return err
		}
		return <-errCh
	}

	flag.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

// resolveList 按 ID 或名称查找列表
func resolveList(store *service.WatchlistStore, args []string, i int) (string, error) {
	if len(args) <= i {
		return "", errors.New("missing watchlist id or name")
	}
	ref := args[i]
	for _, w := range store.Snapshot().Lists {
		if w.ID == ref || strings.EqualFold(w.Name, ref) {
			return w.ID, nil
		}
	}
	return "", fmt.Errorf("watchlist %q not found", ref)
}

func outcomeErr(store *service.WatchlistStore, out model.Outcome) error {
	if out != model.OutcomeOK {
		return errors.New(out.String())
	}
	return persistErr(store)
}

func persistErr(store *service.WatchlistStore) error {
	if err := store.LastPersistError(); err != nil {
		return fmt.Errorf("saved in memory only: %w", err)
	}
	return nil
}
