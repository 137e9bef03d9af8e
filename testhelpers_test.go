package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testPrivateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate test key: %v", err)
		}
		testKey = key
	})
	return testKey
}

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(testPrivateKey(t)),
	}
	return string(pem.EncodeToMemory(block))
}

func testPublicKeyPEM(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&testPrivateKey(t).PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block))
}

// testConfig keeps bcrypt at its cheapest cost so login tests stay fast.
type testConfig struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	privatePEM string
	publicPEM  string
}

func newTestConfig(t *testing.T) *testConfig {
	return &testConfig{
		accessTTL:  time.Hour,
		refreshTTL: 168 * time.Hour,
		privatePEM: testPrivateKeyPEM(t),
		publicPEM:  testPublicKeyPEM(t),
	}
}

func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c *testConfig) GetPrivateKeyPEM() string          { return c.privatePEM }
func (c *testConfig) GetPublicKeyPEM() string           { return c.publicPEM }
func (c *testConfig) GetBcryptCost() int                { return 4 }
