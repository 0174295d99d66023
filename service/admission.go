// Package service implements the admission core: proof-of-work challenges,
// signature sessions, bearer credentials and the facade composing them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/internal/nostr"
	"github.com/agora-market/admission/internal/pow"
	"github.com/agora-market/admission/ports"
)

// DefaultDifficulty is the proof-of-work difficulty used when the deployment
// does not configure one.
const DefaultDifficulty = 4

// Registration carries the fields a client submits to complete
// registration. Nonce and Hash are the proof-of-work answer; they gate
// admission and are stripped before anything is persisted.
type Registration struct {
	Username  string
	Password  string
	Email     string
	FullName  string
	PublicKey string

	Nonce string
	Hash  string
}

// RegistrationResult reports a completed registration. Warning carries a
// side-effect failure (event publishing) that did not affect admission;
// admission success and side-effect failure are never conflated.
type RegistrationResult struct {
	Account *core.Account
	Warning error
}

// ProofResult reports a successful signature proof, with the same warning
// discipline as RegistrationResult.
type ProofResult struct {
	PublicKey string
	Warning   error
}

// TokenResponse is a minted bearer credential.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // seconds
}

// AdmissionService is the only surface transport code talks to. It
// composes the registries, the credential service and the external
// collaborators into the two admission flows: registration by proof of
// work, and identity proof / login.
type AdmissionService struct {
	challenges  *ChallengeRegistry
	sessions    *SessionRegistry
	credentials *CredentialService
	accounts    ports.AccountStore
	hasher      ports.Hasher
	events      ports.EventPublisher
	logger      *slog.Logger
	difficulty  int
}

// NewAdmissionService wires the admission flows together. The event
// publisher and logger may be nil; registries are built on the given
// Record Store with their default lifetimes. The proof-of-work difficulty
// is fixed per deployment; a non-positive value selects DefaultDifficulty.
func NewAdmissionService(
	store ports.Store,
	accounts ports.AccountStore,
	hasher ports.Hasher,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	logger *slog.Logger,
	difficulty int,
) *AdmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}
	return &AdmissionService{
		challenges:  NewChallengeRegistry(store, DefaultChallengeTTL),
		sessions:    NewSessionRegistry(store, accounts, DefaultSessionTTL),
		credentials: NewCredentialService(tokenizer, DefaultCredentialTTL),
		accounts:    accounts,
		hasher:      hasher,
		events:      events,
		logger:      logger,
		difficulty:  difficulty,
	}
}

// RequestChallenge issues a proof-of-work challenge at the deployment's
// configured difficulty. Clients have no say in the difficulty: it is the
// anti-spam cost of registration, so it must not be caller-controlled.
func (s *AdmissionService) RequestChallenge(ctx context.Context) (*core.Challenge, error) {
	return s.challenges.Issue(ctx, s.difficulty)
}

// Difficulty reports the configured proof-of-work difficulty.
func (s *AdmissionService) Difficulty() int {
	return s.difficulty
}

// Target returns the hash prefix a challenge of the given difficulty
// requires.
func (s *AdmissionService) Target(difficulty int) string {
	return pow.Target(difficulty)
}

// CompleteRegistration redeems a proof-of-work token and, only on success,
// creates and activates the account. The proof fields never reach the
// account record.
func (s *AdmissionService) CompleteRegistration(ctx context.Context, token string, reg Registration) (*RegistrationResult, error) {
	if err := s.challenges.Redeem(ctx, token, reg.Nonce, reg.Hash); err != nil {
		return nil, err
	}

	exists, err := s.accounts.Exists(ctx, reg.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.ErrAccountExists
	}

	passwordHash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &core.Account{
		Username:     reg.Username,
		PasswordHash: passwordHash,
		PublicKey:    reg.PublicKey,
		Email:        reg.Email,
		FullName:     reg.FullName,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, err
	}

	result := &RegistrationResult{Account: account}
	if s.events != nil {
		if err := s.events.PublishAccountActivated(ctx, account.Username, account.PublicKey); err != nil {
			s.logger.Warn("account activated but event publish failed",
				"username", account.Username, "error", err)
			result.Warning = err
		}
	}
	return result, nil
}

// RequestSession opens a signature session for the claimed public key and
// returns the challenge string to sign.
func (s *AdmissionService) RequestSession(ctx context.Context, publicKey string) (*core.Session, error) {
	// Reject keys that cannot decode before creating state for them.
	if _, err := nostr.DecodePublicKey(publicKey); err != nil {
		return nil, err
	}
	return s.sessions.Open(ctx, publicKey)
}

// SubmitSignature verifies a signature over the session's challenge. The
// identity reported back is the one carried by the session the proof was
// checked against, so it stays correct even if the session expires right
// after verification.
func (s *AdmissionService) SubmitSignature(ctx context.Context, sessionID string, signature []byte) (*ProofResult, error) {
	session, err := s.sessions.SubmitProof(ctx, sessionID, signature)
	if err != nil {
		return nil, err
	}

	result := &ProofResult{PublicKey: session.PublicKey}
	if s.events != nil {
		if err := s.events.PublishSessionVerified(ctx, sessionID, session.PublicKey); err != nil {
			s.logger.Warn("session verified but event publish failed",
				"session_id", sessionID, "error", err)
			result.Warning = err
		}
	}
	return result, nil
}

// CheckSession reports whether a session has passed its signature check.
func (s *AdmissionService) CheckSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.IsVerified(ctx, sessionID)
}

// SessionIdentity returns the trusted public key behind a verified,
// unexpired session.
func (s *AdmissionService) SessionIdentity(ctx context.Context, sessionID string) (string, bool, error) {
	return s.sessions.PublicKeyFor(ctx, sessionID)
}

// PasswordLogin verifies a password against the stored hash and mints a
// bearer credential. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *AdmissionService) PasswordLogin(ctx context.Context, username, password string) (*TokenResponse, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.Active {
		return nil, core.ErrAccountInactive
	}
	if err := s.hasher.Verify(password, account.PasswordHash); err != nil {
		return nil, core.ErrInvalidCredentials
	}

	token, err := s.credentials.Issue(account.Username)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.credentials.TTL().Seconds()),
	}, nil
}

// ValidateCredential checks a bearer credential and confirms the subject
// still denotes an active account.
func (s *AdmissionService) ValidateCredential(ctx context.Context, token string) (string, error) {
	subject, err := s.credentials.Validate(token)
	if err != nil {
		return "", err
	}

	account, err := s.accounts.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return "", core.ErrCredentialInvalid
		}
		return "", err
	}
	if !account.Active {
		return "", core.ErrAccountInactive
	}
	return subject, nil
}
