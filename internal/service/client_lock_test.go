package service

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisClientLockerExcludesConcurrentHolders(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	locker := NewClientLocker(client, time.Second, 50*time.Millisecond, testLogger())

	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, server.Exists("lock:client:1"))

	_, err = locker.Lock(context.Background(), 1)
	require.ErrorIs(t, err, ErrClientBusy)

	other, err := locker.Lock(context.Background(), 2)
	require.NoError(t, err)
	other()

	release()
	require.False(t, server.Exists("lock:client:1"))

	again, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
}

func TestRedisClientLockerReleaseKeepsForeignLock(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	locker := NewClientLocker(client, time.Second, 50*time.Millisecond, testLogger())
	release, err := locker.Lock(context.Background(), 5)
	require.NoError(t, err)

	// simulate expiry followed by another holder
	require.NoError(t, server.Set("lock:client:5", "someone-else"))
	release()

	value, err := server.Get("lock:client:5")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestLocalClientLockerSerialises(t *testing.T) {
	locker := NewClientLocker(nil, time.Second, time.Second, testLogger())

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), 9)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestLocalClientLockerTimesOut(t *testing.T) {
	locker := NewClientLocker(nil, time.Second, 20*time.Millisecond, testLogger())
	release, err := locker.Lock(context.Background(), 3)
	require.NoError(t, err)
	defer release()

	_, err = locker.Lock(context.Background(), 3)
	require.ErrorIs(t, err, ErrClientBusy)
}
