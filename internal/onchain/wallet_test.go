package onchain

import "testing"

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewWalletDerivesAddress(t *testing.T) {
	t.Parallel()
	w, err := NewWallet(nil, testPrivateKey, 137,
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	if w.Address() == "" {
		t.Error("expected a non-empty derived address")
	}
}

func TestZeroParentCollectionIDIsAllZero(t *testing.T) {
	t.Parallel()
	for _, b := range zeroParentCollectionID.Bytes() {
		if b != 0 {
			t.Fatalf("expected zeroParentCollectionID to be all-zero bytes, found %x", zeroParentCollectionID)
		}
	}
}
