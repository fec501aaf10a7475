// Package dispatch maps the current navigation state to exactly one top-level view.
//
// Resolution is an ordered rule list; the first rule that matches wins. The order is
// part of the contract and is asserted by tests.
package dispatch

import (
	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/nav"
)

// Kind tags the outcome of a resolution.
type Kind int

const (
	// KindReader renders the book reader without layout chrome.
	KindReader Kind = iota
	// KindAuth renders the unauthenticated branch (login, register, ...).
	KindAuth
	// KindLoading renders a placeholder while the session is unresolved.
	KindLoading
	// KindOnboarding renders the carousel with layout chrome suppressed.
	KindOnboarding
	// KindLayout renders Target inside the authenticated layout.
	KindLayout
	// KindRedirect sends the visitor to Target.
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindReader:
		return "reader"
	case KindAuth:
		return "auth"
	case KindLoading:
		return "loading"
	case KindOnboarding:
		return "onboarding"
	case KindLayout:
		return "layout"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// State is everything the dispatcher looks at. It is passed in explicitly.
type State struct {
	Session         domainauth.State
	HasSeenCarousel bool
	// Target is the requested view.
	Target nav.Target
	// ActiveReader is the generation session id of the open book, empty when none.
	ActiveReader string
}

// Resolution is the single view to render (or the redirect to issue).
type Resolution struct {
	Kind   Kind
	Target nav.Target
	// Chrome is true when navigation chrome (top bar, footer, bottom nav) wraps the view.
	Chrome bool
	// Rule names the rule that produced the resolution.
	Rule string
}

type rule struct {
	name  string
	match func(State) (Resolution, bool)
}

// rules is evaluated top to bottom. layout always matches.
var rules = []rule{
	{name: "active-reader", match: activeReader},
	{name: "unauthenticated", match: unauthenticated},
	{name: "loading", match: loading},
	{name: "onboarding", match: onboarding},
	{name: "layout", match: layout},
}

// RuleNames returns the rule names in evaluation order.
func RuleNames() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

// Resolve returns the view for s.
func Resolve(s State) Resolution {
	for _, r := range rules {
		if res, ok := r.match(s); ok {
			res.Rule = r.name
			return res
		}
	}
	return Resolution{Kind: KindLoading, Rule: "none"}
}

func activeReader(s State) (Resolution, bool) {
	if !s.Session.Authenticated || s.ActiveReader == "" {
		return Resolution{}, false
	}
	target := nav.Reader(s.ActiveReader)
	if !nav.Evaluate(target, s.Session).Allowed() {
		return Resolution{}, false
	}
	return Resolution{Kind: KindReader, Target: target}, true
}

func unauthenticated(s State) (Resolution, bool) {
	if s.Session.Authenticated || s.Session.Loading {
		return Resolution{}, false
	}
	target := nav.To(nav.ViewLogin)
	if nav.IsAuthView(s.Target.View) {
		target = s.Target
	}
	return Resolution{Kind: KindAuth, Target: target}, true
}

func loading(s State) (Resolution, bool) {
	if !s.Session.Loading {
		return Resolution{}, false
	}
	return Resolution{Kind: KindLoading, Target: s.Target}, true
}

func onboarding(s State) (Resolution, bool) {
	if !s.Session.Authenticated || s.HasSeenCarousel {
		return Resolution{}, false
	}
	return Resolution{Kind: KindOnboarding, Target: s.Target}, true
}

func layout(s State) (Resolution, bool) {
	g := nav.Evaluate(s.Target, s.Session)
	if !g.Allowed() {
		return Resolution{Kind: KindRedirect, Target: nav.To(g.To)}, true
	}
	chrome := true
	if r, ok := nav.RouteFor(s.Target.View); ok && r.Standalone {
		chrome = false
	}
	return Resolution{Kind: KindLayout, Target: s.Target, Chrome: chrome}, true
}
