package filerepo_test

import (
	"testing"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
	"github.com/lucafab/magazzino/session/filerepo"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	repo := filerepo.New(t.TempDir())
	_, err := repo.Read()
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)
}

func TestWriteReadClear(t *testing.T) {
	repo := filerepo.New(t.TempDir())
	creds := &session.Credentials{Token: "tok", Username: "anna", Role: "admin"}
	require.NoError(t, repo.Write(creds))

	got, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, creds, got)

	require.NoError(t, repo.Clear())
	require.NoError(t, repo.Clear(), "clearing an empty store is not an error")

	_, err = repo.Read()
	require.ErrorIs(t, err, apperrors.ErrNoCredentials)
}

func TestWriteCreatesDataFolder(t *testing.T) {
	repo := filerepo.New(t.TempDir() + "/nested/data")
	require.NoError(t, repo.Write(&session.Credentials{Token: "tok"}))
	got, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, "tok", got.Token)
}
