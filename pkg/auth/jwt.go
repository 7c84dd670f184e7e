package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// JWT configuration constants
const (
	// Default values - actual values are loaded from configuration
	defaultJWTSecret       = "fallback_secret_change_in_production"
	defaultTokenExpiration = 24 * time.Hour
)

// getJWTSecret retrieves the JWT secret from environment variable or configuration
func getJWTSecret() string {
	// First try environment variable
	if envSecret := os.Getenv("JWT_SECRET_KEY"); envSecret != "" {
		return envSecret
	}

	// Fallback to configuration file
	secret := configuration.GetString("Auth", "secret_key", defaultJWTSecret)
	if secret == defaultJWTSecret {
		logger.SecurityWarn("Using fallback JWT secret - set JWT_SECRET_KEY environment variable for production!")
	}
	return secret
}

// getTokenExpiration retrieves the token expiration duration from configuration
func getTokenExpiration() time.Duration {
	hours := configuration.GetInt("Auth", "token_expiration_hours", 24)
	return time.Duration(hours) * time.Hour
}

// SessionClaims definiert die Ansprüche für einen Interpreter-Session-Token
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateSessionToken generates a JWT token for an interpreter session
func GenerateSessionToken(sessionID string) (string, error) {
	secretKey := getJWTSecret()
	tokenExpiration := getTokenExpiration()

	now := time.Now()

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "templecode",
			Subject:   "session",
			ID:        sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("token konnte nicht signiert werden: %v", err)
	}
	logger.AuthInfo("Sessiontoken generiert für Session ID: %s", sessionID)
	return signedToken, nil
}

// ValidateSessionToken validates a JWT token for an interpreter session
func ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	secretKey := getJWTSecret()

	// Parse and validate token
	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Check signing algorithm
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %v", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("could not extract token claims")
	}

	// Check if token is expired
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, fmt.Errorf("token has expired")
	}
	return claims, nil
}

// ExtractTokenFromRequest extracts the JWT token from the HTTP request
// The token can be passed in the Authorization header (Bearer Token) or as a cookie
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	// First try from Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" { // Format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], nil
		}
		return "", fmt.Errorf("invalid authorization header format")
	}

	// Next try from cookie
	cookie, err := r.Cookie("session_token")
	if err == nil {
		return cookie.Value, nil
	}

	// Finally try from URL query parameter
	token := r.URL.Query().Get("token")
	if token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no token found in request")
}

// RequireSessionToken ist ein Middleware für HTTP-Handler, die einen gültigen Session-Token erfordert
func RequireSessionToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// OPTIONS-Anfrage für CORS-Preflight erlauben ohne Token-Überprüfung
		if r.Method == "OPTIONS" {
			next(w, r)
			return
		}
		// Token aus dem Request extrahieren
		tokenString, err := ExtractTokenFromRequest(r)
		if err != nil {
			logger.AuthWarn("Kein Token im Request gefunden: %v", err)
			http.Error(w, "Unbefugt: Token fehlt", http.StatusUnauthorized)
			return
		}

		// Token validieren
		claims, err := ValidateSessionToken(tokenString)
		if err != nil {
			logger.AuthWarn("Ungültiger Token: %v", err)
			http.Error(w, "Unbefugt: Ungültiger Token", http.StatusUnauthorized)
			return
		}

		// Token ist gültig, füge Claims dem Request-Kontext hinzu
		r = r.WithContext(AddClaimsToContext(r.Context(), claims))

		next(w, r)
	}
}
