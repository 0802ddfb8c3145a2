//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"relay-lab/errors"
)

// IAccountRepository stores the delegate's policy data: who exists,
// their password hash, and their friend and group sets. It never sees
// messages; the relay persists nothing that flows through it.
type IAccountRepository interface {
	Create(account Account) (string, error)
	GetByNickname(nickname string) (Account, error)
}

// Account is the stored form of a registered identity.
type Account struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"password_hash"`
	Friends      []string  `json:"friends"`
	Groups       []string  `json:"groups"`
	CreatedAt    time.Time `json:"created_at"`
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) IAccountRepository {
	return &AccountRepository{db: db}
}

func accountKey(nickname string) []byte {
	return []byte("account:" + nickname)
}

// Create persists a new account keyed by nickname and returns its
// generated id. A taken nickname fails with ErrAccountExists.
func (r *AccountRepository) Create(account Account) (string, error) {
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(account)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := accountKey(account.Nickname)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrAccountExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// GetByNickname loads an account, mapping a missing key to
// ErrAccountNotFound.
func (r *AccountRepository) GetByNickname(nickname string) (Account, error) {
	var account Account

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(nickname))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})

	if err == badger.ErrKeyNotFound {
		return Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}
