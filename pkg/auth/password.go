package auth

import (
	"fmt"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// AccessPasswordRequired meldet, ob der Server mit einem Zugangspasswort
// konfiguriert ist. Ohne konfigurierten Hash ist der Zugang offen.
func AccessPasswordRequired() bool {
	return configuration.GetString("Auth", "access_password_hash", "") != ""
}

// VerifyAccessPassword checks a cleartext password against the bcrypt
// hash from the [Auth] configuration section. When no hash is
// configured, every password passes.
func VerifyAccessPassword(password string) error {
	hash := configuration.GetString("Auth", "access_password_hash", "")
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		logger.SecurityWarn("access password verification failed")
		return fmt.Errorf("invalid access password")
	}
	return nil
}

// HashAccessPassword erzeugt einen bcrypt-Hash für die Konfiguration.
// Die Kostenstufe kommt aus [Auth] password_hash_cost.
func HashAccessPassword(password string) (string, error) {
	cost := configuration.GetInt("Auth", "password_hash_cost", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("password hashing failed: %v", err)
	}
	return string(hash), nil
}
