package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	en := language.English
	message.SetString(en, KeyLogin, "You must be logged in to create a new blog post.")
	message.SetString(en, KeyLoginEdit, "You must be logged in to edit blog posts.")
	message.SetString(en, KeyPermissionRequired, "You do not have permission to write blog posts.")
	message.SetString(en, KeyNewPostDenied, "You can only create blog posts under your own user name.")
	message.SetString(en, KeyRecentEditors, "Recent editors")

	de := language.German
	message.SetString(de, KeyLogin, "Du musst angemeldet sein, um einen neuen Blogbeitrag zu erstellen.")
	message.SetString(de, KeyLoginEdit, "Du musst angemeldet sein, um Blogbeiträge zu bearbeiten.")
	message.SetString(de, KeyPermissionRequired, "Du hast keine Berechtigung, Blogbeiträge zu schreiben.")
	message.SetString(de, KeyNewPostDenied, "Du kannst Blogbeiträge nur unter deinem eigenen Benutzernamen erstellen.")
	message.SetString(de, KeyRecentEditors, "Letzte Bearbeiter")
}
