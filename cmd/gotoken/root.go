package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GOTOKEN"

type cli struct {
	v      *viper.Viper
	logger zerolog.Logger
}

// NewRootCmd builds the command tree. Every persistent flag can also be set
// through a GOTOKEN_* environment variable or a config file.
func NewRootCmd() *cobra.Command {
	c := &cli{
		v:      viper.New(),
		logger: zerolog.Nop(),
	}

	root := &cobra.Command{
		Use:           "gotoken",
		Short:         "Issue and verify self-contained signed tokens",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	registerFlags(root.PersistentFlags())

	root.AddCommand(newKeygenCmd(c))
	root.AddCommand(newSealCmd(c))
	root.AddCommand(newOpenCmd(c))
	root.AddCommand(newInspectCmd(c))
	root.AddCommand(newLoadtestCmd(c))

	return root
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")

	fs.String("signing-mode", "symmetric", "signing: none, symmetric or asymmetric")
	fs.String("signing-secret", "", "base64 HMAC secret")
	fs.String("signing-key-file", "", "PEM private key for asymmetric signing")
	fs.String("signing-public-key-file", "", "PEM public key for verify-only asymmetric signing")
	fs.Bool("signing-pss", false, "use RSA-PSS for RSA signing keys")

	fs.String("encryption-mode", "none", "encryption: none, symmetric or asymmetric")
	fs.String("encryption-secret", "", "base64 AEAD key")
	fs.String("encryption-cipher", "aes-gcm", "AEAD for symmetric encryption: aes-gcm or xchacha20-poly1305")
	fs.String("encryption-key-file", "", "PEM private key (RSA or X25519) for asymmetric encryption")
	fs.String("encryption-public-key-file", "", "PEM public key for encrypt-only asymmetric encryption")

	fs.String("compression", "", "compression: empty, deflate or zstd")
	fs.Duration("max-age", 10*time.Minute, "maximum token age; 0 disables expiry")

	fs.String("replay", "", "replay store: empty, memory, redis or postgres")
	fs.String("redis-addr", "", "redis address for the redis replay store")
	fs.String("postgres-dsn", "", "connection string for the postgres replay store")
	fs.Duration("nonce-retention", time.Hour, "how long the replay store remembers nonces")
}

func (c *cli) init(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	logger, err := newLogger(cmd, c.v.GetString("log-level"), c.v.GetString("log-format"))
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

func newLogger(cmd *cobra.Command, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log-level: %w", err)
	}

	out := cmd.ErrOrStderr()
	var logger zerolog.Logger
	switch format {
	case "json":
		logger = zerolog.New(out)
	case "console", "":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	default:
		return zerolog.Nop(), fmt.Errorf("log-format %q: want console or json", format)
	}
	return logger.Level(lvl).With().Timestamp().Logger(), nil
}
