package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/agora-market/admission/adapters/accounts"
	"github.com/agora-market/admission/adapters/events"
	"github.com/agora-market/admission/adapters/hasher"
	"github.com/agora-market/admission/adapters/store"
	"github.com/agora-market/admission/adapters/tokenizer"
	"github.com/agora-market/admission/service"
	"github.com/agora-market/admission/transport/http"
)

func main() {
	signKey, err := loadSigningKey(os.Getenv("SIGNING_KEY_PEM"))
	if err != nil {
		log.Fatalf("Failed to load signing key: %v", err)
	}

	difficulty := service.DefaultDifficulty
	if raw := os.Getenv("POW_DIFFICULTY"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Fatalf("Invalid POW_DIFFICULTY %q", raw)
		}
		difficulty = parsed
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	wmLogger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	admission := service.NewAdmissionService(
		store.NewRedisStore(redisClient),
		accounts.NewRedisAccounts(redisClient),
		hasher.NewArgon2(),
		tokenizer.NewJWTTokenizer(signKey),
		events.NewWatermillPublisher(publisher),
		logger,
		difficulty,
	)

	router := http.SetupRouter(admission)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadSigningKey parses an EC private key from PEM text. Without a
// configured key it generates an ephemeral one, which invalidates
// outstanding credentials on restart; fine for development, not for
// production.
func loadSigningKey(pemText string) (*ecdsa.PrivateKey, error) {
	if pemText == "" {
		log.Println("SIGNING_KEY_PEM not set, generating an ephemeral signing key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, errors.New("no PEM block in SIGNING_KEY_PEM")
	}
	return x509.ParseECPrivateKey(block.Bytes)
}
