package nav

import domainauth "github.com/narrai/narrai-web/internal/domain/auth"

// GuardKind tags a GuardResult.
type GuardKind int

const (
	GuardAllow GuardKind = iota
	GuardRedirect
)

// GuardResult is the outcome of evaluating a navigation attempt: Allow or RedirectTo(view).
type GuardResult struct {
	Kind GuardKind
	To   View
}

// Allow lets the navigation proceed.
func Allow() GuardResult { return GuardResult{Kind: GuardAllow} }

// RedirectTo sends the visitor to v instead.
func RedirectTo(v View) GuardResult { return GuardResult{Kind: GuardRedirect, To: v} }

// Allowed reports whether the result is Allow.
func (g GuardResult) Allowed() bool { return g.Kind == GuardAllow }

func (g GuardResult) String() string {
	if g.Allowed() {
		return "allow"
	}
	return "redirect:" + string(g.To)
}

// Evaluate decides whether target is reachable in the given session state.
// It is a pure function of its inputs.
func Evaluate(target Target, s domainauth.State) GuardResult {
	r := routeFor(target.View)

	switch {
	case s.Loading:
		return Allow()
	case r.Access == AccessPublic:
		return Allow()
	case !s.Authenticated:
		return RedirectTo(ViewLogin)
	case r.Access == AccessAdmin && s.Role != domainauth.RoleAdmin:
		return RedirectTo(ViewHome)
	case target.View == ViewHome:
		return RedirectTo(ViewNewBook)
	default:
		return Allow()
	}
}
