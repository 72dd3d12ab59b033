package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type keyLock struct {
	ch   chan struct{}
	refs int
}

type Memory struct {
	values *ttlcache.Cache[string, []byte]

	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewMemory() *Memory {
	values := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go values.Start()

	return &Memory{
		values: values,
		locks:  make(map[string]*keyLock),
	}
}

// Lock ignores ttl: holders are in-process and always release.
func (m *Memory) Lock(ctx context.Context, key string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				m.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}
}

func (m *Memory) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

func (m *Memory) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values.Set(key, data, ttl)
	return nil
}

func (m *Memory) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	item := m.values.Get(key)
	if item == nil {
		return false, nil
	}
	if err := json.Unmarshal(item.Value(), dest); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.values.Delete(key)
	return nil
}

func (m *Memory) Close() error {
	m.values.Stop()
	return nil
}
