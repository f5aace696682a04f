package policy

import (
	"net/netip"
	"strings"
)

// IsAnonymousName reports whether a host-supplied actor name stands for a
// logged-out editor: blank, or an IP address as the wiki records them.
func IsAnonymousName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	_, err := netip.ParseAddr(name)
	return err == nil
}

// ActorFromName builds the actor for name. Anonymous names keep no rights;
// the caller fills in the rights of registered names.
func ActorFromName(name string) Actor {
	name = strings.TrimSpace(name)
	return Actor{Name: name, IsAnonymous: IsAnonymousName(name)}
}
