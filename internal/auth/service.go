package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"accountapi/internal/config"
)

type Store interface {
	GetAccount(ctx context.Context, username string) (Account, error)
	CreateAccount(ctx context.Context, account Account, session Session, maxAccounts int) error
	CreateSession(ctx context.Context, session Session, limit int, now time.Time) error
	GetSession(ctx context.Context, token string) (Session, error)
	RenewSession(ctx context.Context, token string, expire time.Time) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	store       Store
	hasher      hasher
	header      string
	sessionTTL  time.Duration
	maxAccounts int
	maxSessions int
	now         func() time.Time
}

func NewService(store Store, cfg config.Config) *Service {
	return &Service{
		store:       store,
		hasher:      hasher{iterations: cfg.PBKDF2Iterations},
		header:      cfg.SessionHeader,
		sessionTTL:  cfg.SessionTTL,
		maxAccounts: cfg.MaxAccountCount,
		maxSessions: cfg.MaxSessionCount,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates username with password, creating the account first
// when the username has never been seen. Either way a fresh session token is
// issued.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return LoginResult{}, ErrMissingUsername
	}
	if password == "" {
		return LoginResult{}, ErrMissingPassword
	}

	account, err := s.store.GetAccount(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		result, err := s.register(ctx, username, password)
		if !errors.Is(err, ErrAccountExists) {
			return result, err
		}
		// lost a race with a concurrent registration; authenticate against it
		account, err = s.store.GetAccount(ctx, username)
		if err != nil {
			return LoginResult{}, err
		}
	} else if err != nil {
		return LoginResult{}, err
	}

	return s.signIn(ctx, account, password)
}

func (s *Service) register(ctx context.Context, username, password string) (LoginResult, error) {
	salt, err := newSalt()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate salt: %w", err)
	}
	session, err := s.newSession(username)
	if err != nil {
		return LoginResult{}, err
	}

	account := Account{
		Username:  username,
		Password:  s.hasher.derive(password, salt),
		Salt:      salt,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateAccount(ctx, account, session, s.maxAccounts); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Username: username, Session: session.Token, Created: true}, nil
}

func (s *Service) signIn(ctx context.Context, account Account, password string) (LoginResult, error) {
	if !s.hasher.verify(password, account.Salt, account.Password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	session, err := s.newSession(account.Username)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.CreateSession(ctx, session, s.maxSessions-1, s.now()); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Username: account.Username, Session: session.Token}, nil
}

func (s *Service) newSession(username string) (Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate session token: %w", err)
	}
	return Session{
		Token:    token,
		Username: username,
		Expire:   s.now().Add(s.sessionTTL),
	}, nil
}

// Authenticate resolves the session header of r. Expired sessions are purged
// and the presented token is renewed on every call, whether or not it is
// known. A request without the header yields an empty Identity; an unknown
// token is echoed back with an empty Username.
func (s *Service) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	token := strings.TrimSpace(r.Header.Get(s.header))
	if token == "" {
		return Identity{}, nil
	}

	now := s.now()
	if _, err := s.store.PurgeExpiredSessions(ctx, now); err != nil {
		return Identity{Session: token}, err
	}

	session, err := s.store.GetSession(ctx, token)
	found := err == nil
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return Identity{Session: token}, err
	}

	if err := s.store.RenewSession(ctx, token, now.Add(s.sessionTTL)); err != nil {
		return Identity{Session: token}, err
	}

	if !found {
		return Identity{Session: token}, nil
	}
	return Identity{Username: session.Username, Session: token}, nil
}
