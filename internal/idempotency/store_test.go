package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FirstWriterWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var firsts int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, first, err := s.Record(ctx, "tx-1", "ACCEPTED")
			assert.NoError(t, err)
			assert.Equal(t, "ACCEPTED", stored)
			if first {
				atomic.AddInt32(&firsts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_ConflictReturnsFirstOutcome(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, first, err := s.Record(ctx, "tx-1", "ACCEPTED")
	require.NoError(t, err)
	assert.True(t, first)

	stored, first, err := s.Record(ctx, "tx-1", "DECLINED")
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, "ACCEPTED", stored)

	require.NoError(t, s.Release(ctx, "tx-1"))
	_, first, _ = s.Record(ctx, "tx-1", "DECLINED")
	assert.True(t, first)

	_, _, err = s.Record(ctx, "", "ACCEPTED")
	assert.ErrorIs(t, err, ErrEmptyTransactionID)
}

func TestMemoryStore_Upgrade(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	swapped, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, 0, s.Len())

	_, _, err = s.Record(ctx, "tx-1", "DECLINED")
	require.NoError(t, err)

	var swaps int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&swaps, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), swaps)

	stored, first, err := s.Record(ctx, "tx-1", "DECLINED")
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, "ACCEPTED", stored)
}

func TestPostgresStore_Record(t *testing.T) {
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("First", func(t *testing.T) {
		m.ExpectQuery(`INSERT INTO payment_callbacks .* ON CONFLICT \(transaction_id\) DO NOTHING RETURNING outcome`).
			WithArgs("tx-1", "ACCEPTED").
			WillReturnRows(sqlmock.NewRows([]string{"outcome"}).AddRow("ACCEPTED"))

		stored, first, err := s.Record(ctx, "tx-1", "ACCEPTED")
		require.NoError(t, err)
		assert.True(t, first)
		assert.Equal(t, "ACCEPTED", stored)
	})

	t.Run("Duplicate", func(t *testing.T) {
		m.ExpectQuery(`INSERT INTO payment_callbacks`).
			WithArgs("tx-1", "DECLINED").
			WillReturnRows(sqlmock.NewRows([]string{"outcome"}))
		m.ExpectQuery(`SELECT outcome FROM payment_callbacks WHERE transaction_id = \$1`).
			WithArgs("tx-1").
			WillReturnRows(sqlmock.NewRows([]string{"outcome"}).AddRow("ACCEPTED"))

		stored, first, err := s.Record(ctx, "tx-1", "DECLINED")
		require.NoError(t, err)
		assert.False(t, first)
		assert.Equal(t, "ACCEPTED", stored)
	})

	t.Run("DBError", func(t *testing.T) {
		m.ExpectQuery(`INSERT INTO payment_callbacks`).
			WillReturnError(errors.New("db error"))

		_, _, err := s.Record(ctx, "tx-2", "ACCEPTED")
		assert.Error(t, err)
	})

	t.Run("Upgrade", func(t *testing.T) {
		m.ExpectExec(`UPDATE payment_callbacks SET outcome = \$3, recorded_at = NOW\(\) WHERE transaction_id = \$1 AND outcome = \$2`).
			WithArgs("tx-1", "DECLINED", "ACCEPTED").
			WillReturnResult(sqlmock.NewResult(0, 1))

		swapped, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
		require.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("Upgrade not declined", func(t *testing.T) {
		m.ExpectExec(`UPDATE payment_callbacks`).
			WithArgs("tx-1", "DECLINED", "ACCEPTED").
			WillReturnResult(sqlmock.NewResult(0, 0))

		swapped, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
		require.NoError(t, err)
		assert.False(t, swapped)
	})

	t.Run("Release", func(t *testing.T) {
		m.ExpectExec(`DELETE FROM payment_callbacks WHERE transaction_id = \$1`).
			WithArgs("tx-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.Release(ctx, "tx-1"))
	})

	assert.NoError(t, m.ExpectationsWereMet())
}

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	ret := m.Called(ctx, script, keys, args)
	return ret.Get(0).(*redis.Cmd)
}

func TestRedisStore_Record(t *testing.T) {
	ctx := context.Background()
	ttl := 24 * time.Hour

	t.Run("First", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "moneta:callback:", ttl)

		cmd := redis.NewBoolCmd(ctx)
		cmd.SetVal(true)
		client.On("SetNX", ctx, "moneta:callback:tx-1", "ACCEPTED", ttl).Return(cmd)

		stored, first, err := s.Record(ctx, "tx-1", "ACCEPTED")
		require.NoError(t, err)
		assert.True(t, first)
		assert.Equal(t, "ACCEPTED", stored)
		client.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "moneta:callback:", ttl)

		setCmd := redis.NewBoolCmd(ctx)
		setCmd.SetVal(false)
		client.On("SetNX", ctx, "moneta:callback:tx-1", "DECLINED", ttl).Return(setCmd)
		getCmd := redis.NewStringCmd(ctx)
		getCmd.SetVal("ACCEPTED")
		client.On("Get", ctx, "moneta:callback:tx-1").Return(getCmd)

		stored, first, err := s.Record(ctx, "tx-1", "DECLINED")
		require.NoError(t, err)
		assert.False(t, first)
		assert.Equal(t, "ACCEPTED", stored)
	})

	t.Run("Expired between calls", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "", ttl)

		setCmd := redis.NewBoolCmd(ctx)
		setCmd.SetVal(false)
		client.On("SetNX", ctx, "tx-1", "ACCEPTED", ttl).Return(setCmd)
		getCmd := redis.NewStringCmd(ctx)
		getCmd.SetErr(redis.Nil)
		client.On("Get", ctx, "tx-1").Return(getCmd)

		_, _, err := s.Record(ctx, "tx-1", "ACCEPTED")
		assert.Error(t, err)
	})

	t.Run("Connection error", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "", ttl)

		cmd := redis.NewBoolCmd(ctx)
		cmd.SetErr(errors.New("connection refused"))
		client.On("SetNX", ctx, "tx-1", "ACCEPTED", ttl).Return(cmd)

		_, _, err := s.Record(ctx, "tx-1", "ACCEPTED")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("Release", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "p:", ttl)

		cmd := redis.NewIntCmd(ctx)
		cmd.SetVal(1)
		client.On("Del", ctx, []string{"p:tx-1"}).Return(cmd)

		assert.NoError(t, s.Release(ctx, "tx-1"))
	})

	t.Run("Upgrade", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "p:", ttl)

		cmd := redis.NewCmd(ctx)
		cmd.SetVal(int64(1))
		client.On("Eval", ctx, compareAndSet, []string{"p:tx-1"}, []interface{}{"DECLINED", "ACCEPTED"}).Return(cmd)

		swapped, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
		require.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("Upgrade not declined", func(t *testing.T) {
		client := new(MockRedisClient)
		s := NewRedisStore(client, "p:", ttl)

		cmd := redis.NewCmd(ctx)
		cmd.SetVal(int64(0))
		client.On("Eval", ctx, compareAndSet, []string{"p:tx-1"}, []interface{}{"DECLINED", "ACCEPTED"}).Return(cmd)

		swapped, err := s.Upgrade(ctx, "tx-1", "DECLINED", "ACCEPTED")
		require.NoError(t, err)
		assert.False(t, swapped)
	})
}
