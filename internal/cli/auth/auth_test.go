package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

// failingStore returns an error for every read
type failingStore struct{}

func (failingStore) Get(string) (string, error) { return "", errors.New("disk on fire") }
func (failingStore) Set(string, string) error   { return errors.New("disk on fire") }
func (failingStore) Delete(string) error        { return errors.New("disk on fire") }

func TestDecodeUser(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantAdmin bool
		wantErr   bool
	}{
		{name: "admin", raw: `{"role":"admin"}`, wantAdmin: true},
		{name: "staff", raw: `{"role":"staff"}`},
		{name: "no role", raw: `{"email":"a@b.c"}`},
		{name: "case sensitive", raw: `{"role":"Admin"}`},
		{name: "malformed", raw: `{"role":`, wantErr: true},
		{name: "not an object", raw: `"admin"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := DecodeUser(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedUser)
				assert.False(t, u.IsAdmin())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, u.IsAdmin())
		})
	}
}

func TestLoadState(t *testing.T) {
	store := storage.NewMemory()

	st := LoadState(store)
	assert.False(t, st.Authenticated())
	assert.False(t, st.IsAdmin())

	require.NoError(t, store.Set(storage.KeyToken, "tok"))
	require.NoError(t, SaveUser(store, User{Email: "root@example.com", Role: RoleAdmin}))

	st = LoadState(store)
	assert.True(t, st.Authenticated())
	assert.True(t, st.IsAdmin())
	assert.Equal(t, "root@example.com", st.User.Email)

	require.NoError(t, store.Set(storage.KeyUser, "garbage"))
	st = LoadState(store)
	assert.True(t, st.Authenticated())
	assert.False(t, st.IsAdmin())
	assert.Nil(t, st.User)
	assert.ErrorIs(t, st.UserErr, ErrMalformedUser)
}

func TestLoadState_ReadFailureIsAbsent(t *testing.T) {
	st := LoadState(failingStore{})
	assert.False(t, st.Authenticated())
	assert.False(t, st.IsAdmin())
	assert.NoError(t, st.UserErr)
}

func TestRememberEmail(t *testing.T) {
	store := storage.NewMemory()
	assert.Equal(t, "", RememberedEmail(store))

	require.NoError(t, RememberEmail(store, " admin@example.com "))
	assert.Equal(t, "admin@example.com", RememberedEmail(store))

	require.NoError(t, RememberEmail(store, ""))
	assert.Equal(t, "", RememberedEmail(store))
}
