package subscriptionmanager

import "context"

// UserEmailKey is the local storage key holding the signed-in user's email.
const UserEmailKey = "messmate_user_email"

// AutoInitialize initializes m for the stored user. It does nothing and
// reports false when nobody is signed in.
func AutoInitialize(ctx context.Context, store UserStore, m *Manager) bool {
	email, ok := store.Get(UserEmailKey)
	if !ok || email == "" {
		return false
	}
	return m.Initialize(ctx, email)
}
