// Package identity resolves revision actor references to display identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"simpleblog/api/internal/contributors"
	"simpleblog/api/internal/store"
)

var ErrUnknownActor = errors.New("unknown actor")

// ProfileURL returns the URL of name's user page under base, written the way
// the wiki links user pages ("User:Jane_Doe").
func ProfileURL(base, name string) string {
	page := url.PathEscape("User:" + strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if base == "" {
		return page
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + page
}

type userLookup interface {
	GetUserByName(context.Context, string) (store.User, error)
}

// StoreResolver resolves actor names against the synced user store. The
// identity key is the stored user ID, so a renamed user's old and new names
// collapse into one contributor.
type StoreResolver struct {
	users       userLookup
	profileBase string
}

func NewStoreResolver(users userLookup, profileBase string) *StoreResolver {
	return &StoreResolver{users: users, profileBase: profileBase}
}

func (r *StoreResolver) Resolve(ctx context.Context, actor string) (contributors.Identity, error) {
	user, err := r.users.GetUserByName(ctx, actor)
	if errors.Is(err, store.ErrUserNotFound) {
		return contributors.Identity{}, fmt.Errorf("%w: %q", ErrUnknownActor, actor)
	}
	if err != nil {
		log.Printf("identity: resolve %q: %v", actor, err)
		return contributors.Identity{}, fmt.Errorf("resolve actor %q: %w", actor, err)
	}
	return contributors.Identity{
		Key:         user.ID,
		DisplayName: user.Name,
		ProfileURL:  ProfileURL(r.profileBase, user.Name),
	}, nil
}

// NameResolver treats the reference itself as the user name. It only fails
// for blank references.
type NameResolver struct {
	profileBase string
}

func NewNameResolver(profileBase string) *NameResolver {
	return &NameResolver{profileBase: profileBase}
}

func (r *NameResolver) Resolve(_ context.Context, actor string) (contributors.Identity, error) {
	name := strings.TrimSpace(actor)
	if name == "" {
		return contributors.Identity{}, fmt.Errorf("%w: blank reference", ErrUnknownActor)
	}
	return contributors.Identity{
		Key:         name,
		DisplayName: name,
		ProfileURL:  ProfileURL(r.profileBase, name),
	}, nil
}
