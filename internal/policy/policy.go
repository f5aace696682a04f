// Package policy decides whether an actor may create or edit a blog post.
package policy

// Reason identifies why an edit was denied.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonAnonymousNewPost       Reason = "anonymous_new_post"
	ReasonAnonymousEdit          Reason = "anonymous_edit"
	ReasonInsufficientPermission Reason = "insufficient_permission"
	ReasonNotOwner               Reason = "not_owner"
)

// Actor carries the facts about the party attempting the edit.
type Actor struct {
	Name         string
	IsAnonymous  bool
	IsBlocked    bool
	HasEditRight bool
}

// Outcome is the result of one evaluation. The zero value is Permitted.
type Outcome struct {
	Reason Reason
}

// Permitted is the outcome of an allowed edit.
var Permitted = Outcome{}

// Denied returns a denial carrying reason.
func Denied(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Allowed reports whether the outcome permits the edit.
func (o Outcome) Allowed() bool {
	return o.Reason == ReasonNone
}

func (o Outcome) String() string {
	if o.Allowed() {
		return "permitted"
	}
	return "denied(" + string(o.Reason) + ")"
}

// Evaluate applies the blog edit rules in order; the first matching rule wins.
// Ownership is only enforced when creating a post: editing an existing post
// owned by someone else is allowed once the base checks pass.
func Evaluate(title Title, actor Actor) Outcome {
	if title.Namespace != NamespaceBlog {
		return Permitted
	}
	if actor.IsAnonymous {
		if !title.Exists {
			return Denied(ReasonAnonymousNewPost)
		}
		return Denied(ReasonAnonymousEdit)
	}
	if !actor.HasEditRight || actor.IsBlocked {
		return Denied(ReasonInsufficientPermission)
	}
	if !title.Exists && title.RootText != actor.Name {
		return Denied(ReasonNotOwner)
	}
	return Permitted
}

// Reasons lists every denial reason.
func Reasons() []Reason {
	return []Reason{
		ReasonAnonymousNewPost,
		ReasonAnonymousEdit,
		ReasonInsufficientPermission,
		ReasonNotOwner,
	}
}
