package sshpot

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// LoadOrGenerateHostKey parses the PEM host key at path, or generates a
// 2048-bit RSA key and persists it there when the file is missing or
// unreadable. The sensor keeps the same host identity across restarts
// so repeat visitors see a stable fingerprint.
func LoadOrGenerateHostKey(path string, logger zerolog.Logger) (ssh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		if signer, err := ssh.ParsePrivateKey(data); err == nil {
			logger.Info().Str("path", path).Msg("Loaded SSH host key")
			return signer, nil
		}
		logger.Warn().Str("path", path).Msg("Host key unparseable, generating a new one")
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Msg("Generated new SSH host key")
	return ssh.NewSignerFromKey(key)
}
