package session

import (
	"sync"
	"time"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store owns the current session and its persistence. Dependent operations
// must not run until Restore has resolved once; Loading reports that.
type Store struct {
	repo    Repo
	nowTime func() time.Time
	logger  zerolog.Logger

	lock    sync.RWMutex
	current *Session
	loading bool
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore initializes a Store. The returned store is in the loading state
// until Restore is called.
func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] credentials repo is required")
	}
	store := &Store{
		repo:    repo,
		nowTime: time.Now,
		logger:  log.With().Str("component", "session").Logger(),
		loading: true,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Restore reads persisted credentials, decodes the token locally and marks
// the session active when the expiry is still in the future. A missing,
// malformed or expired token is not an error: it resolves to an inactive
// session exactly as if the user had never logged in, and any persisted
// state is cleared. Restore always ends the loading state.
func (s *Store) Restore() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer s.endLoading()

	creds, err := s.repo.Read()
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoCredentials) {
			s.logger.Warn().Err(err).Msg("could not read persisted credentials")
		}
		return false
	}

	expiry, err := decodeExpiry(creds.Token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("persisted token did not decode, clearing")
		s.clearLocked()
		return false
	}
	if !expiry.After(s.nowTime()) {
		s.logger.Info().Time("expiry", expiry).Msg("persisted token expired, clearing")
		s.clearLocked()
		return false
	}

	s.current = &Session{
		Token:    creds.Token,
		Username: creds.Username,
		Role:     RoleType(creds.Role),
		Expiry:   expiry,
	}
	return true
}

// Login persists the credentials and activates the session synchronously.
// The expiry is derived from the token; a token the gateway just issued is
// expected to decode, so a decode failure here is surfaced.
func (s *Store) Login(token, username string, role RoleType) error {
	expiry, err := decodeExpiry(token)
	if err != nil {
		return errors.Wrap(err, "[Store.Login] decode token")
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	defer s.endLoading()

	if err := s.repo.Write(&Credentials{Token: token, Username: username, Role: string(role)}); err != nil {
		return errors.Wrap(err, "[Store.Login] persist credentials")
	}
	s.current = &Session{Token: token, Username: username, Role: role, Expiry: expiry}
	return nil
}

// Logout clears the persisted credentials and the in-memory identity.
// Idempotent: logging out twice is the same as logging out once.
func (s *Store) Logout() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.clearLocked()
}

// Current returns the active session, or ErrNotAuthenticated. This is the
// authorization gate: callers thread the returned session into gateway
// calls instead of reading ambient state, so an inactive session fails
// before any request is dispatched.
func (s *Store) Current() (*Session, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.current.ActiveAt(s.nowTime()) {
		return nil, apperrors.ErrNotAuthenticated
	}
	return s.current, nil
}

// Authenticated reports whether an active session is held.
func (s *Store) Authenticated() bool {
	_, err := s.Current()
	return err == nil
}

// Loading is true only until Restore (or Login) has resolved once.
func (s *Store) Loading() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.loading
}

func (s *Store) clearLocked() {
	if err := s.repo.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("could not clear persisted credentials")
	}
	s.current = nil
}

func (s *Store) endLoading() {
	s.loading = false
}
