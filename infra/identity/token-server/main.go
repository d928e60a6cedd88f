// Token server for local smoke testing.
// Mints identity-provider JWTs that the main server will accept.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := os.Getenv("HIVEMIND_JWT_SECRET")
	if secret == "" {
		log.Fatal("HIVEMIND_JWT_SECRET must be set")
	}
	issuer := envOr("HIVEMIND_JWT_ISSUER", "hivemind")
	audience := envOr("HIVEMIND_JWT_AUDIENCE", "hivemind-clients")

	http.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		// CORS headers for local testing
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		username := r.URL.Query().Get("user")
		if username == "" {
			http.Error(w, "user query param required", http.StatusBadRequest)
			return
		}
		userID, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":  userID,
			"username": username,
			"iss":      issuer,
			"aud":      audience,
			"iat":      now.Unix(),
			"exp":      now.Add(time.Hour).Unix(),
		})

		signed, err := token.SignedString([]byte(secret))
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to sign token: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(signed))
	})

	addr := ":8082"
	log.Printf("Token server listening on %s", addr)
	log.Printf("Usage: GET /token?user=<name>&id=<numeric id>")
	log.Fatal(http.ListenAndServe(addr, nil))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
