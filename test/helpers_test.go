//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/noncestore"
	"github.com/MrEthical07/goToken/oauth"
)

var integrationSecret = []byte("integration-secret-0123456789abc")

func newIntegrationRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newRefreshCodec(t *testing.T, rdb redis.UniversalClient, now func() time.Time) *goToken.Codec[oauth.RefreshToken, *oauth.RefreshToken] {
	t.Helper()

	store, err := noncestore.NewRedis(rdb, "it", time.Hour)
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	codec, err := goToken.NewCodec[oauth.RefreshToken](goToken.Config{
		Signing:     goToken.SymmetricSigning(integrationSecret, 0),
		Encryption:  goToken.SymmetricEncryption(integrationSecret),
		MaxAge:      30 * time.Minute,
		ReplayGuard: store,
		Clock:       now,
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	t.Cleanup(codec.Close)
	return codec
}

func refreshGrant(subject string) *oauth.RefreshToken {
	return &oauth.RefreshToken{
		ClientID:   "integration",
		Subject:    subject,
		Scopes:     []string{"offline_access"},
		Generation: 1,
	}
}
