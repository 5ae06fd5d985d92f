package main

import (
	"context"
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/database"
	"github.com/citymemory/backend/internal/redis"
	"github.com/citymemory/backend/internal/store"
	"github.com/citymemory/backend/internal/ws"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newTokenCmd(cfg *Config) *cobra.Command {
	var userID, username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for a player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, exp, err := auth.NewTokens(cfg.jwtSecret, cfg.tokenTTL).Issue(auth.Identity{UserID: userID, Username: username})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			if !exp.IsZero() {
				log.Printf("expires %s", exp.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "player id carried by the token")
	cmd.Flags().StringVar(&username, "username", "", "display name carried by the token")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newRoomsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and remove stored rooms",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every stored room, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), cfg, func(ctx context.Context, s store.Store, _ *goredis.Client) error {
				rooms, err := s.ListAll(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPLAYERS\tHOST\tUPDATED")
				for _, r := range rooms {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
						r.ID, r.Name, r.Status, len(r.Players), r.MaxPlayers, r.Host,
						r.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ROOM_ID",
		Short: "Delete a room and notify running servers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]
			return withStore(cmd.Context(), cfg, func(ctx context.Context, s store.Store, rdb *goredis.Client) error {
				deleted, err := s.Delete(ctx, roomID)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("room %s not found", roomID)
				}
				log.Printf("[ROOM] Deleted %s", roomID)

				if rdb == nil {
					log.Println("[EVENTS] No redis configured; running servers were not notified")
					return nil
				}
				n, err := ws.PublishRoomDeleted(ctx, rdb, roomID)
				if err != nil {
					return err
				}
				log.Printf("[EVENTS] Notified %d server(s)", n)
				return nil
			})
		},
	})

	return cmd
}

// withStore opens the configured store for one command
func withStore(parent context.Context, cfg *Config, fn func(context.Context, store.Store, *goredis.Client) error) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.timeout)
	defer cancel()

	var rdb *goredis.Client
	if cfg.redisURL != "" {
		client, err := redis.Connect(ctx, cfg.redisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
	}

	switch cfg.storeDriver {
	case "postgres":
		db, err := database.Connect(ctx, cfg.databaseURL, database.DefaultPool)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, store.NewPostgresStore(db), rdb)
	default:
		return fn(ctx, store.NewRedisStore(rdb), rdb)
	}
}
