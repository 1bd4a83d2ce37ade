package keystore

import "time"

// StoredSeed is the persisted form of the issuing account's family seed. The
// seed itself is sealed by the service encrypter; only the derived address is
// kept in the clear.
type StoredSeed struct {
	// EncryptedSeed is base58-encoded ciphertext.
	EncryptedSeed string `json:"encryptedSeed"`
	Address       string `json:"address"`
	CreatedAt     string `json:"createdAt"`
}

// ServiceKeySalt is stored alongside the seed so the password-derived
// encryption key is stable across restarts.
type ServiceKeySalt struct {
	Base58Salt string `json:"salt"`
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
