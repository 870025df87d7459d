// Package credstore persists the bearer token and cached user record between
// runs. Absence of a stored pair means "no session"; a tampered or truncated
// value is treated the same way rather than surfaced as an error.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"panelctl/pkg/sdk"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

type Credential struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

type Store struct {
	db *gorm.DB
}

// Open creates or opens the credential database at path.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening credential store: %w", err)
	}

	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, fmt.Errorf("error migrating credential store: %w", err)
	}

	return &Store{db: db}, nil
}

// Save writes the token and user in one transaction, so a later Load never
// observes one without the other.
func (s *Store) Save(token string, user *sdk.User) error {
	if token == "" || user == nil {
		return errors.New("credstore: token and user are both required")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&Credential{Key: keyToken, Value: []byte(token)}).Error; err != nil {
			return err
		}
		return tx.Save(&Credential{Key: keyUser, Value: userJSON}).Error
	})
}

// Load returns the stored pair. ok is false when no session is stored or the
// stored data does not decode; Load never fails hard on bad content.
func (s *Store) Load() (token string, user *sdk.User, ok bool) {
	var tokenRow, userRow Credential

	if err := s.db.First(&tokenRow, "key = ?", keyToken).Error; err != nil {
		return "", nil, false
	}
	if err := s.db.First(&userRow, "key = ?", keyUser).Error; err != nil {
		return "", nil, false
	}
	if len(tokenRow.Value) == 0 {
		return "", nil, false
	}

	var u sdk.User
	if err := json.Unmarshal(userRow.Value, &u); err != nil {
		return "", nil, false
	}
	if u.Username == "" {
		return "", nil, false
	}

	return string(tokenRow.Value), &u, true
}

// Clear removes both entries. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	return s.db.Where("key IN ?", []string{keyToken, keyUser}).Delete(&Credential{}).Error
}
