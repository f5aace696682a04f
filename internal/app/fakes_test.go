package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"simpleblog/api/internal/config"
	"simpleblog/api/internal/contributors"
	"simpleblog/api/internal/identity"
	"simpleblog/api/internal/revisions"
	"simpleblog/api/internal/store"
)

type fakeUsers struct {
	users    map[string]store.User
	aliases  map[string]string
	getFn    func(context.Context, string) (store.User, error)
	upsertFn func(context.Context, store.User) (store.User, error)
	pingFn   func(context.Context) error
	renamed  [][2]string
	upserted []store.User
}

func newFakeUsers(users ...store.User) *fakeUsers {
	f := &fakeUsers{users: map[string]store.User{}, aliases: map[string]string{}}
	for _, user := range users {
		f.users[user.Name] = user
	}
	return f
}

func (f *fakeUsers) GetUserByCurrentName(ctx context.Context, name string) (store.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, name)
	}
	user, ok := f.users[name]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUserByName(ctx context.Context, name string) (store.User, error) {
	user, err := f.GetUserByCurrentName(ctx, name)
	if !errors.Is(err, store.ErrUserNotFound) {
		return user, err
	}
	id, ok := f.aliases[name]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return store.User{}, store.ErrUserNotFound
}

func (f *fakeUsers) UpsertUser(ctx context.Context, user store.User) (store.User, error) {
	f.upserted = append(f.upserted, user)
	if f.upsertFn != nil {
		return f.upsertFn(ctx, user)
	}
	if existing, ok := f.users[user.Name]; ok {
		user.ID = existing.ID
	} else {
		user.ID = fmt.Sprintf("usr_%d", len(f.users)+1)
	}
	f.users[user.Name] = user
	return user, nil
}

func (f *fakeUsers) RenameUser(_ context.Context, userID, newName string) ([]string, error) {
	for name, user := range f.users {
		if user.ID != userID {
			continue
		}
		f.renamed = append(f.renamed, [2]string{name, newName})
		delete(f.users, name)
		user.Name = newName
		f.users[newName] = user
		f.aliases[name] = userID
		delete(f.aliases, newName)

		var aliases []string
		for alias, id := range f.aliases {
			if id == userID {
				aliases = append(aliases, alias)
			}
		}
		sort.Strings(aliases)
		return aliases, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsers) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeHistory struct {
	records     map[string][]contributors.Record
	existsFn    func(string) (bool, error)
	historyFn   func(string, int) ([]contributors.Record, error)
	historyCall int
	lastLimit   int
}

func (f *fakeHistory) Exists(title string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(title)
	}
	_, ok := f.records[title]
	return ok, nil
}

func (f *fakeHistory) History(title string, limit int) ([]contributors.Record, error) {
	f.historyCall++
	f.lastLimit = limit
	if f.historyFn != nil {
		return f.historyFn(title, limit)
	}
	records, ok := f.records[title]
	if !ok {
		return nil, revisions.ErrTitleNotFound
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type fakeCache struct {
	contributors.Resolver
	evicted  []string
	evictErr error
	pingErr  error
}

func (f *fakeCache) Evict(_ context.Context, actors ...string) error {
	f.evicted = append(f.evicted, actors...)
	return f.evictErr
}

func (f *fakeCache) Ping(context.Context) error {
	return f.pingErr
}

func testConfig() config.Config {
	return config.Config{
		SyncToken:          "sync-secret",
		ProfileBaseURL:     "https://wiki.example/wiki/",
		RecentEditorsLimit: 50,
		Display:            config.Display{RecentEditors: true, ProfileArticles: true},
	}
}

func newTestService(users *fakeUsers, history *fakeHistory) *Service {
	cfg := testConfig()
	return New(cfg, users, history, identity.NewStoreResolver(users, cfg.ProfileBaseURL))
}

func revisionsBy(actors ...string) []contributors.Record {
	out := make([]contributors.Record, 0, len(actors))
	for i, actor := range actors {
		out = append(out, contributors.Record{Actor: actor, Revision: fmt.Sprintf("rev-%d", i)})
	}
	return out
}
