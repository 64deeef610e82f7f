// Package cache persists peers discovered while scanning, keyed by
// device address, in a JSON file. It is a convenience for tooling and
// integration layers; the core stack never touches the filesystem.
package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Device is one remembered peer.
type Device struct {
	Addr     string    `json:"addr"`
	AddrType uint8     `json:"addr_type"`
	RSSI     int8      `json:"rssi"`
	Data     []byte    `json:"data,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// Store is a file-backed device cache. Safe for concurrent use.
type Store struct {
	filename string
	lock     sync.RWMutex
}

// New returns a store backed by the given file. The file is created on
// first write.
func New(filename string) *Store {
	return &Store{filename: filename}
}

// Put inserts or refreshes a device record.
func (s *Store) Put(d Device) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	devices, err := s.loadExisting()
	if err != nil {
		return err
	}

	devices[d.Addr] = d

	return s.store(devices)
}

// Get returns the record for the given address.
func (s *Store) Get(addr string) (Device, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	devices, err := s.loadExisting()
	if err != nil {
		return Device{}, err
	}

	d, ok := devices[addr]
	if !ok {
		return Device{}, fmt.Errorf("device %s not found in cache", addr)
	}

	return d, nil
}

// All returns every cached record.
func (s *Store) All() (map[string]Device, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.loadExisting()
}

// Clear removes the backing file.
func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	err := os.Remove(s.filename)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (s *Store) loadExisting() (map[string]Device, error) {
	_, err := os.Stat(s.filename)
	if os.IsNotExist(err) {
		return map[string]Device{}, nil
	}

	in, err := os.ReadFile(s.filename)
	if err != nil {
		return nil, err
	}

	var devices map[string]Device
	err = jsoniter.Unmarshal(in, &devices)
	if err != nil {
		return nil, err
	}

	return devices, nil
}

func (s *Store) store(devices map[string]Device) error {
	out, err := jsoniter.Marshal(devices)
	if err != nil {
		return err
	}

	return os.WriteFile(s.filename, out, 0644)
}
