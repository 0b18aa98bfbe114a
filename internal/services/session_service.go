package services

import (
	"fmt"
	"strings"

	"github.com/codyseavey/nextbet/internal/database"
	"github.com/codyseavey/nextbet/internal/models"
)

// DemoUser is the identifier used by the one-click demo login
const DemoUser = "demo@nextbet.ia"

const minPasswordLength = 6

// SessionProvider records who is logged in. Presence of a session is the
// whole of authentication here: no token, no expiry, no credential check.
type SessionProvider interface {
	EstablishSession(id string) error
	ClearSession() error
	CurrentSession() (id string, ok bool, err error)
}

// KVSessionProvider keeps the session marker in the key-value store
type KVSessionProvider struct {
	kv *database.KVStore
}

func NewKVSessionProvider(kv *database.KVStore) *KVSessionProvider {
	return &KVSessionProvider{kv: kv}
}

func (p *KVSessionProvider) EstablishSession(id string) error {
	if err := p.kv.Put(models.SessionKey, id); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

func (p *KVSessionProvider) ClearSession() error {
	if err := p.kv.Delete(models.SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (p *KVSessionProvider) CurrentSession() (string, bool, error) {
	id, ok, err := p.kv.Get(models.SessionKey)
	if err != nil {
		return "", false, fmt.Errorf("read session: %w", err)
	}
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateRegistration checks the form locally. Nothing is compared against
// stored credentials.
func ValidateRegistration(req RegisterRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return ErrEmailRequired
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(req.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateLogin only requires an email
func ValidateLogin(req LoginRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return ErrEmailRequired
	}
	return nil
}
