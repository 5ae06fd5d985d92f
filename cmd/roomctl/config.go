package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the persistent flags shared by every subcommand
type Config struct {
	storeDriver string
	redisURL    string
	databaseURL string
	jwtSecret   string
	tokenTTL    time.Duration
	timeout     time.Duration
}

// envNames maps flags onto the variables the server reads
var envNames = map[string]string{
	"store":        "STORE_DRIVER",
	"redis-url":    "REDIS_URL",
	"database-url": "DATABASE_URL",
	"jwt-secret":   "JWT_SECRET",
}

func (c *Config) validate() error {
	switch c.storeDriver {
	case "redis":
		if c.redisURL == "" {
			return fmt.Errorf("--redis-url is required for the redis store")
		}
	case "postgres":
		if c.databaseURL == "" {
			return fmt.Errorf("--database-url is required for the postgres store")
		}
	default:
		return fmt.Errorf("unsupported store %q (want redis or postgres)", c.storeDriver)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "roomctl",
		Short:         "Operator tool for the City Memory game server.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.storeDriver, "store", "redis", "room store to operate on: redis or postgres (env: STORE_DRIVER)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL, also used to notify running servers (env: REDIS_URL)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection URL (env: DATABASE_URL)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "change-me-in-production", "secret used to sign tokens (env: JWT_SECRET)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens, 0 for none")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "timeout for store operations")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if env, ok := envNames[f.Name]; ok {
			_ = v.BindEnv(f.Name, env)
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newTokenCmd(cfg), newRoomsCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("roomctl v{{.Version}}\n")

	return cmd
}
