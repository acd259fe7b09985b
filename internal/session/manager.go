// Package session owns the shopper's persisted client-side entries: the
// session credential, the last offer check and the one-time welcome flag.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
)

const (
	credentialKey     = "session:credential"
	lastOfferCheckKey = "offers:last_checked"
	welcomeSeenPrefix = "flags:welcome_seen"
)

// Manager reads and writes the persisted session entries.
type Manager struct {
	entries Entries
	now     func() time.Time
}

// NewManager constructs a Manager over entries.
func NewManager(entries Entries) (*Manager, error) {
	if entries == nil {
		return nil, fmt.Errorf("session entries are required")
	}
	return &Manager{entries: entries, now: time.Now}, nil
}

// Credential returns the stored session token, if any.
func (m *Manager) Credential(ctx context.Context) (string, bool, error) {
	token, found, err := m.entries.Lookup(ctx, credentialKey)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read credential")
	}
	token = strings.TrimSpace(token)
	return token, found && token != "", nil
}

// ValidCredential returns the stored credential after inspecting it. A
// missing credential yields found=false; an expired or malformed one yields
// an UNAUTHORIZED error.
func (m *Manager) ValidCredential(ctx context.Context) (Credential, bool, error) {
	token, found, err := m.Credential(ctx)
	if err != nil || !found {
		return Credential{}, false, err
	}
	cred, err := InspectCredential(token, m.now())
	if err != nil {
		return cred, true, err
	}
	return cred, true, nil
}

// SaveCredential persists a session token.
func (m *Manager) SaveCredential(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "credential is empty")
	}
	if err := m.entries.Set(ctx, credentialKey, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store credential")
	}
	return nil
}

// ClearCredential removes the stored token. Clearing a missing token is not
// an error.
func (m *Manager) ClearCredential(ctx context.Context) error {
	if err := m.entries.Delete(ctx, credentialKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear credential")
	}
	return nil
}

// LastOfferCheck returns when the last offer notification was emitted. An
// unreadable stored value counts as never.
func (m *Manager) LastOfferCheck(ctx context.Context) (time.Time, bool, error) {
	raw, found, err := m.entries.Lookup(ctx, lastOfferCheckKey)
	if err != nil {
		return time.Time{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read last offer check")
	}
	if !found {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}

// SetLastOfferCheck records at as the last offer notification time.
func (m *Manager) SetLastOfferCheck(ctx context.Context, at time.Time) error {
	if err := m.entries.Set(ctx, lastOfferCheckKey, at.UTC().Format(time.RFC3339Nano)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store last offer check")
	}
	return nil
}

// WelcomeSeen reports whether userID has already received the welcome
// notification.
func (m *Manager) WelcomeSeen(ctx context.Context, userID string) (bool, error) {
	_, found, err := m.entries.Lookup(ctx, welcomeKey(userID))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read welcome flag")
	}
	return found, nil
}

// MarkWelcomeSeen sets the welcome flag for userID.
func (m *Manager) MarkWelcomeSeen(ctx context.Context, userID string) error {
	if err := m.entries.Set(ctx, welcomeKey(userID), m.now().UTC().Format(time.RFC3339)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store welcome flag")
	}
	return nil
}

func welcomeKey(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return welcomeSeenPrefix
	}
	return welcomeSeenPrefix + ":" + userID
}
