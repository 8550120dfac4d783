package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// protectedRoutes maps HTTP methods to the path prefixes of the mutating
// company routes.
var protectedRoutes = map[string]string{
	http.MethodPost:   "/v1/companies",  // CreateCompany
	http.MethodPatch:  "/v1/companies/", // UpdateCompany
	http.MethodDelete: "/v1/companies/", // DeleteCompany
}

func HTTPMiddleware(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for non-protected endpoints
		if !isProtectedRequest(r) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}

	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return "", fmt.Errorf("invalid authorization format")
	}

	return tokenString, nil
}

func isProtectedRequest(r *http.Request) bool {
	prefix, ok := protectedRoutes[r.Method]
	return ok && strings.HasPrefix(r.URL.Path, prefix)
}
