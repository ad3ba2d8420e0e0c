// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/consorcio/emissions/database"
)

// MockRedisClient is an in-memory stand-in for database.RedisClient.
type MockRedisClient struct {
	mu         sync.RWMutex
	data       map[string]string
	expiry     map[string]time.Time
	shouldFail bool
	failError  error
}

// NewMockRedisClient creates a new mock Redis client.
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data:   make(map[string]string),
		expiry: make(map[string]time.Time),
	}
}

// SetShouldFail makes every following call return err.
func (m *MockRedisClient) SetShouldFail(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shouldFail = shouldFail
	m.failError = err
}

// Get retrieves a value by key. Missing and expired keys return
// database.ErrKeyNotFound.
func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return "", m.failError
	}

	if exp, ok := m.expiry[key]; ok && time.Now().After(exp) {
		delete(m.data, key)
		delete(m.expiry, key)
		return "", database.ErrKeyNotFound
	}

	val, ok := m.data[key]
	if !ok {
		return "", database.ErrKeyNotFound
	}
	return val, nil
}

// Set sets a value with optional expiry.
func (m *MockRedisClient) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return m.failError
	}

	m.data[key] = value
	if expiry > 0 {
		m.expiry[key] = time.Now().Add(expiry)
	} else {
		delete(m.expiry, key)
	}
	return nil
}

// Delete deletes keys.
func (m *MockRedisClient) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return m.failError
	}

	for _, key := range keys {
		delete(m.data, key)
		delete(m.expiry, key)
	}
	return nil
}

// GetJSON retrieves and unmarshals a JSON value.
func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON marshals and sets a JSON value.
func (m *MockRedisClient) SetJSON(ctx context.Context, key string, value any, expiry time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return m.Set(ctx, key, string(data), expiry)
}

// GetInt reads an integer counter. A missing key reads as zero.
func (m *MockRedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := m.Get(ctx, key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Incr increments an integer counter.
func (m *MockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return 0, m.failError
	}

	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// SetJSONIfVersion stores value only while the counter at versionKey equals
// version, atomically with respect to Incr.
func (m *MockRedisClient) SetJSONIfVersion(ctx context.Context, key string, value any, expiry time.Duration, versionKey string, version int64) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return false, m.failError
	}

	current, _ := strconv.ParseInt(m.data[versionKey], 10, 64)
	if current != version {
		return false, nil
	}
	m.data[key] = string(data)
	if expiry > 0 {
		m.expiry[key] = time.Now().Add(expiry)
	} else {
		delete(m.expiry, key)
	}
	return true, nil
}

// Exists checks if a key exists.
func (m *MockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if exp, ok := m.expiry[key]; ok && time.Now().After(exp) {
		return false, nil
	}

	_, ok := m.data[key]
	return ok, nil
}

// TTL returns the remaining lifetime of a key, or 0 if it has none.
func (m *MockRedisClient) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if exp, ok := m.expiry[key]; ok {
		return time.Until(exp)
	}
	return 0
}

// Keys returns every stored key.
func (m *MockRedisClient) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys
}

// Clear clears all data (useful for test cleanup).
func (m *MockRedisClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.expiry = make(map[string]time.Time)
}
