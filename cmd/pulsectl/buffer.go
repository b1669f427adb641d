package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fastygo/taskpulse/internal/config"
	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
	"github.com/fastygo/taskpulse/internal/services"
)

func bufferCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "buffer", Short: "Inspect or drain the write-behind buffer"}
	cmd.AddCommand(bufferDrainCmd(), bufferSizeCmd(), bufferListCmd(), bufferPurgeCmd())
	return cmd
}

// openBuffer opens the bolt file; it is locked while the server runs.
func openBuffer(cfg *config.Config) (*buffer.Store, error) {
	store, err := buffer.Open(cfg.Buffer.Path, "buffer")
	if err != nil {
		return nil, fmt.Errorf("open buffer (is the server running?): %w", err)
	}
	return store, nil
}

func bufferDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay one batch of buffered operations now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				store, err := openBuffer(rt.cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				processor := services.NewBufferProcessor(store, nil, rt.storage.Users, rt.aggregator, rt.log, services.ProcessorConfig{
					Interval:   rt.cfg.Buffer.SyncInterval,
					MaxRetries: rt.cfg.Buffer.MaxRetry,
					Retention:  rt.cfg.Buffer.Retention,
				})
				result, err := processor.DrainOnce(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(result)
				}
				fmt.Printf("processed=%d requeued=%d dropped=%d remaining=%d\n",
					result.Processed, result.Requeued, result.Dropped, processor.Size())
				return nil
			})
		},
	}
}

func bufferSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of buffered operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openBuffer(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			size, err := store.Size()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]int{"size": size})
			}
			fmt.Println(size)
			return nil
		},
	}
}

func bufferListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List buffered operations in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openBuffer(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.GetBatch(limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "User", "Entity", "Priority", "Retries", "Queued"})
			for _, item := range items {
				tw.AppendRow(table.Row{
					item.ID,
					item.UserID,
					item.Entity,
					item.Priority,
					item.Retries,
					item.QueuedAt.UTC().Format(time.RFC3339),
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of items")
	return cmd
}

func bufferPurgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop buffered operations queued longer than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = cfg.Buffer.Retention
			}
			store, err := openBuffer(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Cleanup(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]int{"removed": removed})
			}
			fmt.Printf("removed %d item(s) queued more than %s ago\n", removed, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (defaults to BUFFER_RETENTION_HOURS)")
	return cmd
}
