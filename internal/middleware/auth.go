package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

const walletKey contextKey = "wallet"

var sessionStore *redis.Client

// InitAuthMiddleware wires the optional redis session store used for token
// blacklisting. A nil client disables the blacklist check.
func InitAuthMiddleware(redisClient *redis.Client) {
	sessionStore = redisClient
}

// CallerWallet returns the authenticated wallet address, the identity every
// ledger operation authorizes against.
func CallerWallet(ctx context.Context) string {
	wallet, _ := ctx.Value(walletKey).(string)
	return wallet
}

// WithCallerWallet is used by tests to inject an identity without a token.
func WithCallerWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, walletKey, wallet)
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}
		token := parts[1]

		if sessionStore != nil {
			key := fmt.Sprintf("blacklist:%s", token)
			if exists, err := sessionStore.Exists(r.Context(), key).Result(); err == nil && exists > 0 {
				http.Error(w, "Token revoked", http.StatusUnauthorized)
				return
			}
		}

		wallet, err := validateToken(token)
		if err != nil || wallet == "" {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), walletKey, wallet)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})

	if err != nil || !token.Valid {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", err
	}

	wallet, _ := claims["wallet"].(string)
	return wallet, nil
}
