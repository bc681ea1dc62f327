package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspark/parking-reservation/internal/user"
)

func testSession() Session {
	return Session{
		UserID:   uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Username: "2024-0001",
		FullName: "Test Student",
		Role:     user.RoleUser,
	}
}

func newTestStore(t *testing.T) (*Store, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour, 30*24*time.Hour)
	store.newToken = func() string { return "tok123" }

	return store, mock
}

func TestCreate(t *testing.T) {
	store, mock := newTestStore(t)
	sess := testSession()

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	mock.ExpectSet("session:tok123", data, 24*time.Hour).SetVal("OK")

	token, err := store.Create(context.Background(), sess, false)
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRemember(t *testing.T) {
	store, mock := newTestStore(t)
	sess := testSession()

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	mock.ExpectSet("session:tok123", data, 30*24*time.Hour).SetVal("OK")

	_, err = store.Create(context.Background(), sess, true)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	store, mock := newTestStore(t)
	sess := testSession()

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	mock.ExpectGet("session:tok123").SetVal(string(data))

	got, err := store.Get(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, sess, *got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissing(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectGet("session:expired").RedisNil()

	_, err := store.Get(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDestroy(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectDel("session:tok123").SetVal(1)

	err := store.Destroy(context.Background(), "tok123")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
