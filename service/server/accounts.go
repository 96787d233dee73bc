package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type (
	// Account is an API user.
	Account struct {
		Pk       int
		Username string
		Token    string
	}

	// Accounts is the token -> Account registry.
	Accounts struct {
		sync.RWMutex
		byToken map[string]Account
		nextPk  int
	}
)

// Add registers a username, an empty token gets generated.
func (a *Accounts) Add(username, token string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, fmt.Errorf("%s: empty", "username")
	}
	if token == "" {
		token = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	a.Lock()
	defer a.Unlock()

	if _, found := a.byToken[token]; found {
		return Account{}, fmt.Errorf("token for %s: already registered", username)
	}
	a.nextPk++
	acc := Account{Pk: a.nextPk, Username: username, Token: token}
	a.byToken[token] = acc

	return acc, nil
}

// Lookup returns the Account owning the token.
func (a *Accounts) Lookup(token string) (Account, bool) {
	a.RLock()
	defer a.RUnlock()

	acc, found := a.byToken[token]

	return acc, found
}

// List returns all accounts ordered by pk.
func (a *Accounts) List() []Account {
	a.RLock()
	defer a.RUnlock()

	out := make([]Account, 0, len(a.byToken))
	for _, acc := range a.byToken {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pk < out[j].Pk })

	return out
}

// NewAccounts creates a new Accounts object.
func NewAccounts() *Accounts {
	return &Accounts{
		byToken: make(map[string]Account),
	}
}

// ParseAccounts builds Accounts from "username[:token]" entries.
func ParseAccounts(entries []string) (*Accounts, error) {
	accounts := NewAccounts()
	for i, entry := range entries {
		username, token, _ := strings.Cut(strings.TrimSpace(entry), ":")
		if _, err := accounts.Add(username, strings.TrimSpace(token)); err != nil {
			return nil, fmt.Errorf("account[%d]: %w", i, err)
		}
	}

	return accounts, nil
}
