package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
)

const credentialsFile = "credentials.json"

var _ session.Repo = (*FileRepo)(nil)

// FileRepo persists credentials as a single JSON file under the data
// folder. The file is the only client state that survives a restart.
type FileRepo struct {
	path string
}

func New(dataFolder string) *FileRepo {
	return &FileRepo{path: filepath.Join(dataFolder, credentialsFile)}
}

func (r *FileRepo) Read() (*session.Credentials, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNoCredentials
		}
		return nil, errors.Wrap(err, "read credentials file")
	}
	var creds session.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, errors.Wrap(err, "unmarshal credentials file")
	}
	if creds.Token == "" {
		return nil, apperrors.ErrNoCredentials
	}
	return &creds, nil
}

func (r *FileRepo) Write(creds *session.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.Wrap(err, "create data folder")
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "marshal credentials")
	}
	// The token is a bearer credential, keep the file private.
	if err := os.WriteFile(r.path, raw, 0o600); err != nil {
		return errors.Wrap(err, "write credentials file")
	}
	return nil
}

func (r *FileRepo) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove credentials file")
	}
	return nil
}
