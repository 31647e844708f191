package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SecretPrefix は発行するキーの接頭辞
	SecretPrefix = "pdx_"
	// secretBytes はキーのランダム部分のバイト数
	secretBytes = 32
	// FingerprintLength は表示用フィンガープリントの文字数
	FingerprintLength = 12
)

// generateSecret は "pdx_" + 64桁の16進数のキーを生成する
func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return SecretPrefix + hex.EncodeToString(buf), nil
}

// digest はキーのダイジェストを返す
// pepper が空なら SHA-256、指定されていれば HMAC-SHA256
func digest(secret string, pepper []byte) string {
	if len(pepper) == 0 {
		sum := sha256.Sum256([]byte(secret))
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// fingerprint はキー先頭の表示用文字列を返す
func fingerprint(secret string) string {
	if len(secret) <= FingerprintLength {
		return secret
	}
	return secret[:FingerprintLength]
}

// wellFormed はキーの形式だけを検査する
func wellFormed(secret string) bool {
	if !strings.HasPrefix(secret, SecretPrefix) {
		return false
	}
	body := secret[len(SecretPrefix):]
	if len(body) != secretBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
