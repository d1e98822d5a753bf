package clob

import (
	"strings"
	"testing"
)

// a throwaway well-formed secp256k1 key, never used for anything but tests.
const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewAuthDerivesAddressFromPrivateKey(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(testPrivateKey, 137, "", Credentials{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	if auth.Address().Hex() == "" {
		t.Error("expected a non-empty derived address")
	}
	if auth.FunderAddress() != auth.Address() {
		t.Error("with no funder override, FunderAddress should equal the signer address")
	}
}

func TestNewAuthAcceptsFunderOverride(t *testing.T) {
	t.Parallel()
	funder := "0x000000000000000000000000000000000000fe"
	auth, err := NewAuth(testPrivateKey, 137, funder, Credentials{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	if strings.ToLower(auth.FunderAddress().Hex()) != funder {
		t.Errorf("FunderAddress = %s, want %s", auth.FunderAddress().Hex(), funder)
	}
	if auth.FunderAddress() == auth.Address() {
		t.Error("expected FunderAddress to differ from the signer address when overridden")
	}
}

func TestHasL2Credentials(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(testPrivateKey, 137, "", Credentials{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	if auth.HasL2Credentials() {
		t.Error("expected no L2 credentials before SetCredentials")
	}
	auth.SetCredentials(Credentials{ApiKey: "k", Secret: "c2VjcmV0", Passphrase: "p"})
	if !auth.HasL2Credentials() {
		t.Error("expected L2 credentials to be present after SetCredentials")
	}
}

func TestL1HeadersIncludesNonceAndSignature(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(testPrivateKey, 137, "", Credentials{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	headers, err := auth.L1Headers(7)
	if err != nil {
		t.Fatalf("L1Headers: %v", err)
	}
	if headers["POLY_NONCE"] != "7" {
		t.Errorf("POLY_NONCE = %s, want 7", headers["POLY_NONCE"])
	}
	if !strings.HasPrefix(headers["POLY_SIGNATURE"], "0x") {
		t.Errorf("expected a 0x-prefixed signature, got %s", headers["POLY_SIGNATURE"])
	}
	if headers["POLY_ADDRESS"] != auth.Address().Hex() {
		t.Errorf("POLY_ADDRESS = %s, want %s", headers["POLY_ADDRESS"], auth.Address().Hex())
	}
}

func TestL2HeadersUsesConfiguredCredentials(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(testPrivateKey, 137, "", Credentials{ApiKey: "my-key", Secret: "c2VjcmV0", Passphrase: "my-pass"})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	headers, err := auth.L2Headers("POST", "/order", `{"foo":"bar"}`)
	if err != nil {
		t.Fatalf("L2Headers: %v", err)
	}
	if headers["POLY_API_KEY"] != "my-key" {
		t.Errorf("POLY_API_KEY = %s, want my-key", headers["POLY_API_KEY"])
	}
	if headers["POLY_PASSPHRASE"] != "my-pass" {
		t.Errorf("POLY_PASSPHRASE = %s, want my-pass", headers["POLY_PASSPHRASE"])
	}
	if headers["POLY_SIGNATURE"] == "" {
		t.Error("expected a non-empty HMAC signature")
	}
}

func TestBuildHMACIsDeterministic(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(testPrivateKey, 137, "", Credentials{Secret: "c2VjcmV0"})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	sig1, err := auth.buildHMAC("1700000000", "GET", "/order/123", "")
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	sig2, err := auth.buildHMAC("1700000000", "GET", "/order/123", "")
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	if sig1 != sig2 {
		t.Error("expected buildHMAC to be deterministic for identical inputs")
	}

	sig3, err := auth.buildHMAC("1700000000", "GET", "/order/456", "")
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	if sig1 == sig3 {
		t.Error("expected a different request path to change the signature")
	}
}
