package policy

import (
	"errors"
	"testing"
)

func TestParseTitle(t *testing.T) {
	cases := []struct {
		raw       string
		namespace Namespace
		text      string
		root      string
	}{
		{raw: "User_blog:Alice/First post", namespace: NamespaceBlog, text: "Alice/First post", root: "Alice"},
		{raw: "user blog:alice/First post", namespace: NamespaceBlog, text: "Alice/First post", root: "Alice"},
		{raw: "User blog:Alice", namespace: NamespaceBlog, text: "Alice", root: "Alice"},
		{raw: "User  blog : Alice / Draft ", namespace: NamespaceBlog, text: "Alice / Draft", root: "Alice"},
		{raw: "User blog talk:Alice/First post", namespace: NamespaceBlogTalk, text: "Alice/First post", root: "Alice"},
		{raw: "User:Bob", namespace: NamespaceUser, text: "Bob", root: "Bob"},
		{raw: "Main Page", namespace: NamespaceMain, text: "Main Page", root: "Main Page"},
		{raw: "Recipes:Soup/Tomato", namespace: NamespaceMain, text: "Recipes:Soup/Tomato", root: "Recipes:Soup"},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseTitle(tc.raw)
			if err != nil {
				t.Fatalf("ParseTitle() error = %v", err)
			}
			if got.Namespace != tc.namespace || got.Text != tc.text || got.RootText != tc.root {
				t.Fatalf("ParseTitle(%q) = %+v", tc.raw, got)
			}
			if got.Exists {
				t.Fatal("expected Exists to be left false")
			}
		})
	}
}

func TestParseTitleRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "User blog:", "User_blog: _ "} {
		if _, err := ParseTitle(raw); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("ParseTitle(%q) error = %v, want ErrEmptyTitle", raw, err)
		}
	}
}

func TestPrefixedText(t *testing.T) {
	title, err := ParseTitle("user_blog:Alice/Hello")
	if err != nil {
		t.Fatalf("ParseTitle() error = %v", err)
	}
	if got := title.PrefixedText(); got != "User blog:Alice/Hello" {
		t.Fatalf("PrefixedText() = %q", got)
	}
	main := Title{Namespace: NamespaceMain, Text: "Home"}
	if got := main.PrefixedText(); got != "Home" {
		t.Fatalf("PrefixedText() = %q", got)
	}
}
