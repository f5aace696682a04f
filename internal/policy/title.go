package policy

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Namespace is a wiki namespace number.
type Namespace int

const (
	NamespaceMain     Namespace = 0
	NamespaceUser     Namespace = 2
	NamespaceUserTalk Namespace = 3
	NamespaceBlog     Namespace = 500
	NamespaceBlogTalk Namespace = 501
)

// BlogPrefix is the canonical title prefix of NamespaceBlog.
const BlogPrefix = "User blog"

var namespaceNames = map[string]Namespace{
	"user":           NamespaceUser,
	"user talk":      NamespaceUserTalk,
	"user blog":      NamespaceBlog,
	"user blog talk": NamespaceBlogTalk,
}

var ErrEmptyTitle = errors.New("empty title")

// Title identifies a page. RootText is the segment before the first '/',
// which for blog posts names the owning user.
type Title struct {
	Namespace Namespace
	Text      string
	RootText  string
	Exists    bool
}

// PrefixedText renders the title the way the wiki displays it.
func (t Title) PrefixedText() string {
	for name, ns := range namespaceNames {
		if ns == t.Namespace {
			return canonicalNamespace(name) + ":" + t.Text
		}
	}
	return t.Text
}

// ParseTitle splits a prefixed title such as "User_blog:Alice/First post".
// Underscores read as spaces and the first letter is upper-cased. An
// unknown prefix leaves the title in the main namespace. Exists is left
// false; callers fill it from their storage.
func ParseTitle(raw string) (Title, error) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	ns := NamespaceMain
	if prefix, rest, ok := strings.Cut(text, ":"); ok {
		if found, known := namespaceNames[strings.ToLower(collapseSpaces(prefix))]; known {
			ns = found
			text = strings.TrimSpace(rest)
		}
	}
	text = collapseSpaces(text)
	if text == "" {
		return Title{}, ErrEmptyTitle
	}
	text = upperFirst(text)

	root, _, _ := strings.Cut(text, "/")
	return Title{
		Namespace: ns,
		Text:      text,
		RootText:  strings.TrimSpace(root),
	}, nil
}

func canonicalNamespace(lower string) string {
	return upperFirst(lower)
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func upperFirst(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError {
		return value
	}
	return string(unicode.ToUpper(r)) + value[size:]
}
