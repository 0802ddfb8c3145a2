// Package services holds the application layer above the repositories:
// account registration and login, producing the tokens the relay's
// token delegate accepts.
package services

import (
	"fmt"
	"time"

	"relay-lab/auth"
	"relay-lab/errors"
	"relay-lab/repositories"
)

type IAccountService interface {
	Register(nickname, password string, friends, groups []string) (Token, error)
	Login(nickname, password string) (Token, error)
}

type Token string

type AccountService struct {
	accounts      repositories.IAccountRepository
	tokenSecret   []byte
	tokenDuration time.Duration
}

func NewAccountService(accounts repositories.IAccountRepository,
	tokenSecret []byte, tokenDuration time.Duration) IAccountService {
	return &AccountService{
		accounts:      accounts,
		tokenSecret:   tokenSecret,
		tokenDuration: tokenDuration,
	}
}

// Register validates, hashes, persists, and issues the first token.
// Validation runs before any expensive cryptographic work.
func (s *AccountService) Register(nickname, password string, friends, groups []string) (Token, error) {
	valReq := auth.RegisterRequest{
		Nickname: nickname,
		Password: password,
		Friends:  friends,
		Groups:   groups,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	accountID, err := s.accounts.Create(repositories.Account{
		Nickname:     nickname,
		PasswordHash: hashedPassword,
		Friends:      friends,
		Groups:       groups,
	})
	if err != nil {
		return "", err // Propagates ErrAccountExists when the nickname is taken
	}

	token, err := auth.GenerateToken(s.tokenSecret, accountID, nickname, friends, groups, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Login verifies credentials and issues a fresh token carrying the
// stored friend and group sets.
func (s *AccountService) Login(nickname, password string) (Token, error) {
	account, err := s.accounts.GetByNickname(nickname)
	if err != nil {
		// Generic error to prevent account enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.tokenSecret, account.ID, account.Nickname,
		account.Friends, account.Groups, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
