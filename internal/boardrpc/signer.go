package boardrpc

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// generateSignerKey produces a fresh ed25519 key pair and returns its
// hex-encoded private key plus an address derived from the public key.
// The real RPC server performs this server-side (Client.CreateSigner is a
// wire call, never local key generation); this helper exists so
// FakeTransport can hand tests realistic-looking key material without a
// live RPC server.
func generateSignerKey() (privateKeyHex, address string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("boardrpc: generating signer key: %w", err)
	}
	return hex.EncodeToString(priv), addressFromPublicKey(pub), nil
}

// deriveSignerKey recreates the public address for a stored hex-encoded
// ed25519 private key, as the RPC server does when recreating a signer
// from state.signers[address].privateKey.
func deriveSignerKey(privateKeyHex string) (address string, err error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("boardrpc: decoding stored private key: %w", err)
	}
	priv := ed25519.PrivateKey(raw)
	if len(priv) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("boardrpc: stored private key has wrong length %d", len(raw))
	}
	pub := priv.Public().(ed25519.PublicKey)
	return addressFromPublicKey(pub), nil
}

func addressFromPublicKey(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub) + ".eth"
}
