package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/flofy"
	"github.com/poiesic/flofy/adapter"
	"github.com/poiesic/flofy/ai"
	"github.com/poiesic/flofy/config"
	"github.com/poiesic/flofy/core"
	"github.com/poiesic/flofy/storage"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("remote") {
		cfg.Remote = c.String("remote")
	}
	if c.IsSet("user") {
		cfg.UserID = c.String("user")
	}
	if c.IsSet("ai-host") {
		cfg.AI.Host = c.String("ai-host")
	}
	if c.IsSet("ai-model") {
		cfg.AI.Model = c.String("ai-model")
	}
	return cfg, nil
}

func openClient(c *cli.Context, opts ...flofy.Option) (*flofy.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts = append([]flofy.Option{
		flofy.WithLogger(slog.Default()),
		flofy.WithAdapterOptions(adapter.WithOnline(!c.Bool("offline"))),
	}, opts...)
	return flofy.New(cfg, opts...)
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func getCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	key := c.Args().First()
	value, err := client.Adapter().Get(c.Context, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("key %q not found", key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, value)
	return nil
}

func setCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	adp := client.Adapter()
	if err := adp.Set(c.Context, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	if pending := len(adp.Pending()); pending > 0 {
		slog.Warn("remote write queued; it is lost if not drained before exit",
			"state", adp.State().String(), "pending", pending)
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Adapter().Remove(c.Context, c.Args().First())
}

func keysCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	keys, err := client.Local().Keys(c.Context)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if c.Bool("legacy") && !core.IsLegacyKey(key) {
			continue
		}
		fmt.Fprintln(c.App.Writer, key)
	}
	return nil
}

func migrateCommand(c *cli.Context) error {
	var opts []flofy.Option
	if !c.Bool("quiet") {
		opts = append(opts, flofy.WithMigrationProgress(c.App.ErrWriter))
	}
	client, err := openClient(c, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Migrate(c.Context)
	if err != nil {
		return err
	}
	if result.AlreadyComplete {
		fmt.Fprintln(c.App.Writer, "migration already complete")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "migrated %d of %d keys (remote: %s)\n",
		result.Migrated, result.Scanned, client.Adapter().State())
	return nil
}

func historyShowCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Summary(c.Context)
	if err != nil {
		return err
	}
	current, err := summary.Load(c.Context)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		fmt.Fprintf(c.App.Writer, "summary (%d messages): %s\n\n", current.MessageCount, current.Text)
	}

	history, err := client.History(c.Context)
	if err != nil {
		return err
	}
	messages, err := history.Load(c.Context)
	if err != nil {
		return err
	}
	if transcript := ai.FormatTranscript(messages); transcript != "" {
		fmt.Fprintln(c.App.Writer, transcript)
	}
	return nil
}

func historyAddCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	history, err := client.History(c.Context)
	if err != nil {
		return err
	}
	n, err := history.Append(c.Context, core.ChatMessage{
		Role:    core.Role(c.String("role")),
		Content: c.Args().First(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d messages\n", n)
	return nil
}

func historyClearCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	history, err := client.History(c.Context)
	if err != nil {
		return err
	}
	summary, err := client.Summary(c.Context)
	if err != nil {
		return err
	}
	if err := history.Clear(c.Context); err != nil {
		return err
	}
	return summary.Clear(c.Context)
}

func summarizeCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	compactor, err := client.Compactor(c.Context)
	if err != nil {
		return err
	}
	run := compactor.Compact
	if c.Bool("force") {
		run = compactor.Force
	}
	compacted, err := run(c.Context)
	if err != nil {
		return err
	}
	if !compacted {
		fmt.Fprintln(c.App.Writer, "nothing to summarize")
		return nil
	}

	summary, err := client.Summary(c.Context)
	if err != nil {
		return err
	}
	current, err := summary.Load(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, current.Text)
	return nil
}

func watchCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	out := c.App.Writer
	opts := []flofy.Option{
		flofy.WithAutoMigrate(),
		flofy.WithAdapterOptions(adapter.WithOnApply(func(e core.Entry) {
			fmt.Fprintf(out, "%s\t%s\n", e.Key, core.IDFromContent(e.Value))
		})),
	}
	reg := newRegistry()
	if addr := c.String("metrics-addr"); addr != "" {
		opts = append(opts, flofy.WithRegisterer(reg))
	}

	client, err := openClient(c, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Init(ctx); err != nil {
		return err
	}
	sub, err := client.Adapter().Follow(ctx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	slog.Info("following remote changes", "user", client.Adapter().UserID(), "subscription", sub.ID())

	if addr := c.String("metrics-addr"); addr != "" {
		return serveHTTP(ctx, addr, metricsRouter(reg))
	}
	<-ctx.Done()
	return nil
}
