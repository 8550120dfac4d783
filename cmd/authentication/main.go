// This is a **mock authentication service**, designed to provide JWT tokens
// for the company service, simulating user authentication.
package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/billy/internal/company/auth"
	"github.com/gartstein/billy/internal/pkg/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultPort    = "8081"
	defaultSecret  = "jwt_secret"
	defaultSubject = "12345"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

type tokenIssuer struct {
	secret string
	logger *zap.Logger
}

// ServeHTTP signs a token for the subject query parameter, or a fixed
// user when none is given.
func (t *tokenIssuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = defaultSubject
	}

	token, err := auth.GenerateToken(subject, t.secret, 0)
	if err != nil {
		t.logger.Error("failed to sign token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
		t.logger.Warn("failed to encode token", zap.Error(err))
	}
}

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	mux := http.NewServeMux()
	mux.Handle("/token", &tokenIssuer{
		secret: getEnv("JWT_SECRET", defaultSecret),
		logger: logger.Named("auth_service"),
	})

	port := getEnv("AUTH_PORT", defaultPort)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Authentication service running", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("authentication service failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
