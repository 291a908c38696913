package repofake

import (
	"sync"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
)

var _ session.Repo = (*FakeCredentialsRepo)(nil)

type FakeCredentialsRepo struct {
	lock  sync.RWMutex
	creds *session.Credentials

	// Injectable failures for error-path tests
	ReadErr  error
	WriteErr error
	ClearErr error
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{}
}

func (r *FakeCredentialsRepo) Read() (*session.Credentials, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.ReadErr != nil {
		return nil, r.ReadErr
	}
	if r.creds == nil {
		return nil, apperrors.ErrNoCredentials
	}
	copied := *r.creds
	return &copied, nil
}

func (r *FakeCredentialsRepo) Write(creds *session.Credentials) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.WriteErr != nil {
		return r.WriteErr
	}
	copied := *creds
	r.creds = &copied
	return nil
}

func (r *FakeCredentialsRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ClearErr != nil {
		return r.ClearErr
	}
	r.creds = nil
	return nil
}

// Stored returns the currently persisted credentials (test inspection).
func (r *FakeCredentialsRepo) Stored() *session.Credentials {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.creds
}
