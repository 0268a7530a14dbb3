package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	portalauth "github.com/infound/portal-auth"
	"github.com/infound/portal-auth/password"
)

var errUnknownCreator = errors.New("unknown creator")

// creatorEntry is one record in the JSON directory file. CredentialHash
// is an argon2id PHC string produced by the password package.
type creatorEntry struct {
	Username          string `json:"username"`
	CredentialHash    string `json:"credentialHash"`
	IFID              string `json:"ifId"`
	PlatformCreatorID string `json:"platformCreatorId"`
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	WhatsApp          string `json:"whatsapp"`
}

// fileDirectory is a CreatorDirectory backed by a JSON file, loaded once
// at startup. Reload replaces the whole table under the lock, so lookups
// never see a half-applied file.
type fileDirectory struct {
	hasher *password.Hasher

	mu      sync.RWMutex
	entries map[string]creatorEntry
	path    string
}

func newFileDirectory(path string, hasher *password.Hasher) (*fileDirectory, error) {
	d := &fileDirectory{
		hasher: hasher,
		path:   path,
	}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads the directory file. Called at startup and on SIGHUP.
func (d *fileDirectory) Reload() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("reading users file: %w", err)
	}

	var list []creatorEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parsing users file: %w", err)
	}

	entries := make(map[string]creatorEntry, len(list))
	for _, e := range list {
		if e.Username == "" || e.CredentialHash == "" {
			return fmt.Errorf("users file: entry missing username or credentialHash")
		}
		key := strings.ToLower(e.Username)
		if _, dup := entries[key]; dup {
			return fmt.Errorf("users file: duplicate username %q", e.Username)
		}
		entries[key] = e
	}

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return nil
}

// Authenticate implements portalauth.CreatorDirectory. Any failure, user
// not found or credential mismatch, returns an error so the engine can
// report rejections uniformly.
func (d *fileDirectory) Authenticate(_ context.Context, username, credential string) (*portalauth.CreatorRecord, error) {
	d.mu.RLock()
	entry, ok := d.entries[strings.ToLower(username)]
	d.mu.RUnlock()

	if !ok {
		return nil, errUnknownCreator
	}

	match, err := d.hasher.Verify(credential, entry.CredentialHash)
	if err != nil {
		return nil, fmt.Errorf("verifying credential: %w", err)
	}
	if !match {
		return nil, errUnknownCreator
	}

	return &portalauth.CreatorRecord{
		IFID:              entry.IFID,
		PlatformCreatorID: entry.PlatformCreatorID,
		Username:          entry.Username,
		DisplayName:       entry.DisplayName,
		Email:             entry.Email,
		WhatsApp:          entry.WhatsApp,
	}, nil
}
