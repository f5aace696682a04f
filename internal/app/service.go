package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"simpleblog/api/internal/config"
	"simpleblog/api/internal/contributors"
	"simpleblog/api/internal/messages"
	"simpleblog/api/internal/policy"
	"simpleblog/api/internal/revisions"
	"simpleblog/api/internal/store"
)

type EditCheckInput struct {
	Title string `json:"title"`
	Actor string `json:"actor"`
	// Lang selects the language of the denial message.
	Lang language.Tag `json:"-"`
}

type EditCheckResult struct {
	Title   policy.Title
	Actor   policy.Actor
	Outcome policy.Outcome
	Message string
}

type RecentEditorsResult struct {
	Title   string               `json:"title"`
	Show    bool                 `json:"show"`
	Header  string               `json:"header"`
	Editors []contributors.Entry `json:"editors"`
}

type RegistrationInfo struct {
	NamespaceID            int    `json:"namespaceId"`
	TalkNamespaceID        int    `json:"talkNamespaceId"`
	NamespacePrefix        string `json:"namespacePrefix"`
	DisplayRecentEditors   bool   `json:"displayRecentEditors"`
	ProfileDisplayArticles bool   `json:"profileDisplayArticles"`
}

type UserSyncInput struct {
	Name         string `json:"name"`
	PreviousName string `json:"previousName"`
	Blocked      bool   `json:"blocked"`
	CanEdit      bool   `json:"canEdit"`
}

type userStore interface {
	GetUserByCurrentName(context.Context, string) (store.User, error)
	UpsertUser(context.Context, store.User) (store.User, error)
	RenameUser(context.Context, string, string) ([]string, error)
	Ping(context.Context) error
}

type historySource interface {
	Exists(string) (bool, error)
	History(string, int) ([]contributors.Record, error)
}

type identityCache interface {
	contributors.Resolver
	Evict(context.Context, ...string) error
	Ping(context.Context) error
}

type Service struct {
	cfg      config.Config
	users    userStore
	history  historySource
	resolver contributors.Resolver
	cache    identityCache
}

func New(cfg config.Config, users userStore, history historySource, resolver contributors.Resolver) *Service {
	return &Service{
		cfg:      cfg,
		users:    users,
		history:  history,
		resolver: resolver,
	}
}

// NewWithIdentityCache resolves contributors through cache and evicts synced
// users from it.
func NewWithIdentityCache(cfg config.Config, users userStore, history historySource, cache identityCache) *Service {
	svc := New(cfg, users, history, cache)
	svc.cache = cache
	return svc
}

func (s *Service) SyncToken() string {
	return s.cfg.SyncToken
}

func (s *Service) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

// PingIdentityCache checks the identity cache. configured is false when the
// service resolves contributors without one.
func (s *Service) PingIdentityCache(ctx context.Context) (configured bool, err error) {
	if s.cache == nil {
		return false, nil
	}
	return true, s.cache.Ping(ctx)
}

func (s *Service) Registration() RegistrationInfo {
	return RegistrationInfo{
		NamespaceID:            int(policy.NamespaceBlog),
		TalkNamespaceID:        int(policy.NamespaceBlogTalk),
		NamespacePrefix:        policy.BlogPrefix,
		DisplayRecentEditors:   s.cfg.Display.RecentEditors,
		ProfileDisplayArticles: s.cfg.Display.ProfileArticles,
	}
}

// EvaluateEdit gathers the facts about input's title and actor and applies
// the blog edit policy. A denial is a normal result; errors are only returned
// for invalid input or failing storage. Titles outside the blog namespace are
// permitted without touching storage.
func (s *Service) EvaluateEdit(ctx context.Context, input EditCheckInput) (EditCheckResult, error) {
	title, err := policy.ParseTitle(input.Title)
	if err != nil {
		return EditCheckResult{}, validationError(err.Error())
	}
	if title.Namespace != policy.NamespaceBlog {
		return EditCheckResult{
			Title:   title,
			Actor:   policy.ActorFromName(input.Actor),
			Outcome: policy.Permitted,
		}, nil
	}

	exists, err := s.history.Exists(title.PrefixedText())
	if err != nil {
		return EditCheckResult{}, fmt.Errorf("check title exists: %w", err)
	}
	title.Exists = exists
	actor, err := s.loadActor(ctx, input.Actor)
	if err != nil {
		return EditCheckResult{}, err
	}

	outcome := policy.Evaluate(title, actor)
	result := EditCheckResult{Title: title, Actor: actor, Outcome: outcome}
	if !outcome.Allowed() {
		result.Message = messages.Denial(input.Lang, outcome)
	}
	return result, nil
}

// RecentEditors lists the distinct editors of a blog post, most recent
// first. Nothing is read when the box is disabled or the title is not a
// blog post.
func (s *Service) RecentEditors(ctx context.Context, rawTitle string, lang language.Tag) (RecentEditorsResult, error) {
	title, err := policy.ParseTitle(rawTitle)
	if err != nil {
		return RecentEditorsResult{}, validationError(err.Error())
	}
	result := RecentEditorsResult{
		Title:   title.PrefixedText(),
		Header:  messages.RecentEditorsHeader(lang),
		Editors: []contributors.Entry{},
	}
	if !s.cfg.Display.RecentEditors || title.Namespace != policy.NamespaceBlog {
		return result, nil
	}

	records, err := s.history.History(title.PrefixedText(), s.cfg.RecentEditorsLimit)
	if errors.Is(err, revisions.ErrTitleNotFound) {
		return result, nil
	}
	if err != nil {
		return RecentEditorsResult{}, fmt.Errorf("read history: %w", err)
	}

	result.Editors = contributors.Build(ctx, records, s.resolver)
	result.Show = len(result.Editors) > 0
	return result, nil
}

// SyncUser records a host user in the identity store. A PreviousName moves
// the existing user to Name and keeps the old name resolvable.
func (s *Service) SyncUser(ctx context.Context, input UserSyncInput) (store.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.User{}, validationError("name is required")
	}
	if policy.IsAnonymousName(name) {
		return store.User{}, validationError("anonymous actors cannot be synced")
	}

	// every reference that may now resolve differently
	evict := []string{name}
	previous := strings.TrimSpace(input.PreviousName)
	if previous != "" && previous != name {
		evict = append(evict, previous)
		existing, err := s.users.GetUserByCurrentName(ctx, previous)
		switch {
		case errors.Is(err, store.ErrUserNotFound):
		case err != nil:
			return store.User{}, fmt.Errorf("lookup previous name: %w", err)
		default:
			aliases, err := s.users.RenameUser(ctx, existing.ID, name)
			if err != nil {
				return store.User{}, fmt.Errorf("rename user: %w", err)
			}
			evict = appendMissing(evict, aliases...)
		}
	}

	user, err := s.users.UpsertUser(ctx, store.User{
		Name:      name,
		IsBlocked: input.Blocked,
		CanEdit:   input.CanEdit,
	})
	if err != nil {
		return store.User{}, err
	}

	if s.cache != nil {
		if err := s.cache.Evict(ctx, evict...); err != nil {
			log.Printf("identity cache evict %v: %v", evict, err)
		}
	}
	return user, nil
}

// loadActor maps the host's actor name to policy facts. The name is kept as
// given; rights come only from the user currently holding that name, so a
// former name of a renamed user carries nothing. A name the store has not
// seen has no edit right until it is synced.
func (s *Service) loadActor(ctx context.Context, name string) (policy.Actor, error) {
	actor := policy.ActorFromName(name)
	if actor.IsAnonymous {
		return actor, nil
	}
	user, err := s.users.GetUserByCurrentName(ctx, actor.Name)
	if errors.Is(err, store.ErrUserNotFound) {
		return actor, nil
	}
	if err != nil {
		return policy.Actor{}, fmt.Errorf("load actor: %w", err)
	}
	actor.IsBlocked = user.IsBlocked
	actor.HasEditRight = user.CanEdit
	return actor, nil
}

func appendMissing(names []string, more ...string) []string {
	for _, candidate := range more {
		if !slices.Contains(names, candidate) {
			names = append(names, candidate)
		}
	}
	return names
}
