// Package messages localizes denial reasons and the recent-editors header.
package messages

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"simpleblog/api/internal/policy"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

const (
	KeyLogin              = "blog-login"
	KeyLoginEdit          = "blog-login-edit"
	KeyPermissionRequired = "blog-permission-required"
	KeyNewPostDenied      = "blog-newpost-denied"
	KeyRecentEditors      = "blog-recent-editors"
)

var supportedTags = []language.Tag{
	language.English,
	language.German,
}

var tagMatcher = language.NewMatcher(supportedTags)

var reasonKeys = map[policy.Reason]string{
	policy.ReasonAnonymousNewPost:       KeyLogin,
	policy.ReasonAnonymousEdit:          KeyLoginEdit,
	policy.ReasonInsufficientPermission: KeyPermissionRequired,
	policy.ReasonNotOwner:               KeyNewPostDenied,
}

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Match returns the supported tag closest to value, which may be a single
// tag or an Accept-Language list.
func Match(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, index, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return Default()
	}
	return supportedTags[index]
}

// ResolveTag picks the response language from the lang query parameter, then
// the Accept-Language header.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		return Match(value)
	}
	return Match(r.Header.Get("Accept-Language"))
}

// KeyFor returns the message key for a denial reason.
func KeyFor(reason policy.Reason) (string, bool) {
	key, ok := reasonKeys[reason]
	return key, ok
}

// Denial returns the localized text for outcome, or "" when it is permitted.
func Denial(tag language.Tag, outcome policy.Outcome) string {
	key, ok := KeyFor(outcome.Reason)
	if !ok {
		return ""
	}
	return printer(tag).Sprintf(key)
}

func RecentEditorsHeader(tag language.Tag) string {
	return printer(tag).Sprintf(KeyRecentEditors)
}

func printer(tag language.Tag) *message.Printer {
	if tag == language.Und {
		tag = Default()
	}
	return message.NewPrinter(tag)
}
