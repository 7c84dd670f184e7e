package auth

import (
	"encoding/json"
	"net/http"

	"github.com/antibyte/templecode/pkg/logger"

	"github.com/google/uuid"
)

// SessionRequest definiert die Struktur für Session-Anfragen
type SessionRequest struct {
	Password string `json:"password,omitempty"`
}

// SessionResponse definiert die Struktur für Session-Antworten
type SessionResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// HandleCreateSession creates a new interpreter session. When an access
// password is configured, the request must carry it.
func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	// Setze CORS-Header
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	// Handle OPTIONS (Preflight) request
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Nur POST-Anfragen akzeptieren
	if r.Method != "POST" {
		logger.AuthWarn("Invalid method for session creation: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		logger.AuthWarn("Invalid JSON in session request: %v", err)
		respondWithError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if AccessPasswordRequired() {
		if err := VerifyAccessPassword(req.Password); err != nil {
			logger.AuthWarn("Session creation rejected for IP %s: %v", getClientIP(r), err)
			respondWithError(w, "Invalid access password", http.StatusUnauthorized)
			return
		}
	}

	sessionID := uuid.NewString()

	token, err := GenerateSessionToken(sessionID)
	if err != nil {
		logger.AuthError("Failed to generate JWT token for session %s: %v", sessionID, err)
		respondWithError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	// Cookie setzen für automatische Übertragung
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(getTokenExpiration().Seconds()),
		HttpOnly: true,  // XSS-Schutz
		Secure:   false, // In Produktion auf true setzen bei HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)

	response := SessionResponse{
		Success:   true,
		Token:     token,
		SessionID: sessionID,
		Message:   "Session created successfully",
	}

	logger.AuthInfo("New session created: %s for IP: %s", sessionID, getClientIP(r))
	json.NewEncoder(w).Encode(response)
}

// HandleTokenValidation validiert ein JWT-Token
func HandleTokenValidation(w http.ResponseWriter, r *http.Request) {
	// Setze CORS-Header
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	// Handle OPTIONS request
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Token aus Request extrahieren
	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		logger.AuthWarn("No token found in validation request: %v", err)
		respondWithError(w, "Token not found", http.StatusUnauthorized)
		return
	}

	claims, err := ValidateSessionToken(tokenString)
	if err != nil {
		logger.AuthWarn("Token validation failed: %v", err)
		respondWithError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	response := SessionResponse{
		Success:   true,
		SessionID: claims.SessionID,
		Message:   "Token valid",
	}

	logger.AuthInfo("Token validated for session: %s", claims.SessionID)
	json.NewEncoder(w).Encode(response)
}

// HandleLogout löscht das JWT-Token Cookie
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	// Setze CORS-Header
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	// Handle OPTIONS request
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Cookie löschen
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Sofort löschen
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)

	response := SessionResponse{
		Success: true,
		Message: "Logout successful",
	}

	logger.AuthInfo("Session logged out, token cookie cleared")
	json.NewEncoder(w).Encode(response)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for load balancers/proxies)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return forwarded
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// respondWithError sendet eine Fehlerantwort als JSON
func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	response := SessionResponse{
		Success: false,
		Message: message,
	}
	json.NewEncoder(w).Encode(response)
}
