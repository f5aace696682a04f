// Package contributors turns a title's raw revision history into the list of
// distinct editors shown next to a blog post.
package contributors

import (
	"context"
	"time"
)

// Record is one revision-history entry. Actor is an opaque reference that
// only a Resolver understands.
type Record struct {
	Actor     string
	Revision  string
	Timestamp time.Time
}

// Identity is a resolved actor. Key is the identity used for deduplication
// and may differ from the record's reference (e.g. a renamed account).
type Identity struct {
	Key         string
	DisplayName string
	ProfileURL  string
}

// Entry is one displayed contributor. DisplayName is untrusted text and must
// be escaped by whatever renders it.
type Entry struct {
	DisplayName string `json:"displayName"`
	ProfileURL  string `json:"profileUrl"`
}

// Resolver maps an actor reference to an identity. An error, or an identity
// without a display name, means the record is left out.
type Resolver interface {
	Resolve(ctx context.Context, actor string) (Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, actor string) (Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, actor string) (Identity, error) {
	return f(ctx, actor)
}

// Build returns one entry per distinct identity, in order of first
// appearance in records. The resolver is called once per record. The result
// is never nil; an empty slice means there is nothing to show.
func Build(ctx context.Context, records []Record, resolver Resolver) []Entry {
	entries := make([]Entry, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		identity, err := resolver.Resolve(ctx, record.Actor)
		if err != nil || identity.DisplayName == "" {
			continue
		}
		key := identity.Key
		if key == "" {
			key = identity.DisplayName
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{
			DisplayName: identity.DisplayName,
			ProfileURL:  identity.ProfileURL,
		})
	}
	return entries
}
