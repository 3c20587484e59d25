package main

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/compression"
	"github.com/MrEthical07/goToken/encrypt"
	"github.com/MrEthical07/goToken/noncestore"
	"github.com/MrEthical07/goToken/signer"
)

var errNoPEM = errors.New("no PEM block found")

// codecConfig assembles a goToken.Config from flags, environment and config
// file. The returned cleanup releases replay store connections.
func (c *cli) codecConfig(ctx context.Context) (goToken.Config, func(), error) {
	noop := func() {}
	cfg := goToken.Config{
		MaxAge:  c.v.GetDuration("max-age"),
		Logger:  &c.logger,
		Metrics: goToken.MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
	}

	var err error
	if cfg.Signing, err = c.signingMaterial(); err != nil {
		return cfg, noop, err
	}
	if cfg.Encryption, err = c.encryptionMaterial(); err != nil {
		return cfg, noop, err
	}
	if alg := c.v.GetString("compression"); alg != "" {
		cfg.Compression = goToken.CompressionConfig{
			Enabled:   true,
			Algorithm: compression.Algorithm(alg),
		}
	}

	store, cleanup, err := c.replayStore(ctx)
	if err != nil {
		return cfg, noop, err
	}
	cfg.ReplayGuard = store
	return cfg, cleanup, nil
}

func (c *cli) signingMaterial() (goToken.SigningKeyMaterial, error) {
	switch mode := c.v.GetString("signing-mode"); mode {
	case "none":
		return goToken.NoSigning(), nil
	case "symmetric":
		secret, err := decodeSecret("signing-secret", c.v.GetString("signing-secret"))
		if err != nil {
			return goToken.SigningKeyMaterial{}, err
		}
		return goToken.SymmetricSigning(secret, 0), nil
	case "asymmetric":
		keys, err := c.keyPair("signing-key-file", "signing-public-key-file")
		if err != nil {
			return goToken.SigningKeyMaterial{}, err
		}
		if c.v.GetBool("signing-pss") {
			return goToken.AsymmetricSigningPSS(keys, 0), nil
		}
		return goToken.AsymmetricSigning(keys, 0), nil
	default:
		return goToken.SigningKeyMaterial{}, fmt.Errorf("signing-mode %q: want none, symmetric or asymmetric", mode)
	}
}

func (c *cli) encryptionMaterial() (goToken.EncryptionKeyMaterial, error) {
	switch mode := c.v.GetString("encryption-mode"); mode {
	case "none", "":
		return goToken.NoEncryption(), nil
	case "symmetric":
		secret, err := decodeSecret("encryption-secret", c.v.GetString("encryption-secret"))
		if err != nil {
			return goToken.EncryptionKeyMaterial{}, err
		}
		cipher, err := parseCipher(c.v.GetString("encryption-cipher"))
		if err != nil {
			return goToken.EncryptionKeyMaterial{}, err
		}
		return goToken.SymmetricEncryptionWith(secret, cipher), nil
	case "asymmetric":
		keys, err := c.keyPair("encryption-key-file", "encryption-public-key-file")
		if err != nil {
			return goToken.EncryptionKeyMaterial{}, err
		}
		return goToken.AsymmetricEncryption(keys), nil
	default:
		return goToken.EncryptionKeyMaterial{}, fmt.Errorf("encryption-mode %q: want none, symmetric or asymmetric", mode)
	}
}

func parseCipher(name string) (encrypt.Cipher, error) {
	switch name {
	case "", encrypt.CipherAESGCM.String():
		return encrypt.CipherAESGCM, nil
	case encrypt.CipherXChaCha20Poly1305.String():
		return encrypt.CipherXChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("encryption-cipher %q: want aes-gcm or xchacha20-poly1305", name)
	}
}

func decodeSecret(flag, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", flag)
	}
	secret, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return secret, nil
}

func (c *cli) keyPair(privateFlag, publicFlag string) (goToken.KeyPair, error) {
	var keys goToken.KeyPair
	if path := c.v.GetString(privateFlag); path != "" {
		k, err := loadPrivateKey(path)
		if err != nil {
			return keys, fmt.Errorf("%s: %w", privateFlag, err)
		}
		keys.Private = k
	}
	if path := c.v.GetString(publicFlag); path != "" {
		k, err := loadPublicKey(path)
		if err != nil {
			return keys, fmt.Errorf("%s: %w", publicFlag, err)
		}
		keys.Public = k
	}
	if keys.Private == nil && keys.Public == nil {
		return keys, fmt.Errorf("%s or %s is required", privateFlag, publicFlag)
	}
	return keys, nil
}

// loadPrivateKey reads signing keys through the signer package and falls back
// to PKCS#8 for X25519.
func loadPrivateKey(path string) (crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if k, err := signer.ParsePrivateKey(data); err == nil {
		return k, nil
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}
	return x509.ParsePKCS8PrivateKey(block.Bytes)
}

func loadPublicKey(path string) (crypto.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if k, err := signer.ParsePublicKey(data); err == nil {
		return k, nil
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}
	return x509.ParsePKIXPublicKey(block.Bytes)
}

func (c *cli) replayStore(ctx context.Context) (goToken.NonceStore, func(), error) {
	retention := c.v.GetDuration("nonce-retention")
	noop := func() {}

	switch kind := c.v.GetString("replay"); kind {
	case "":
		return nil, noop, nil
	case "memory":
		return noncestore.NewMemory(retention), noop, nil
	case "redis":
		addr := c.v.GetString("redis-addr")
		if addr == "" {
			return nil, noop, errors.New("redis-addr is required for the redis replay store")
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		store, err := noncestore.NewRedis(client, "", retention)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, func() { _ = client.Close() }, nil
	case "postgres":
		dsn := c.v.GetString("postgres-dsn")
		if dsn == "" {
			return nil, noop, errors.New("postgres-dsn is required for the postgres replay store")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		store, err := noncestore.NewPostgres(pool, retention)
		if err == nil {
			err = store.EnsureSchema(ctx)
		}
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("replay %q: want memory, redis or postgres", kind)
	}
}

// withCodec builds a codec for T from the current settings and runs fn.
func withCodec[T any, P goToken.PayloadPtr[T]](ctx context.Context, c *cli, fn func(*goToken.Codec[T, P]) error) error {
	cfg, cleanup, err := c.codecConfig(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	codec, err := goToken.NewCodec[T, P](cfg)
	if err != nil {
		return err
	}
	defer codec.Close()

	return fn(codec)
}
