// Package viewmodel holds the typed data the page templates consume.
package viewmodel

// User represents the signed-in user exposed to templates.
type User struct {
	FirstName string
	Email     string
	Role      string
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	View   string
	Title  string
	Href   string
	Active bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	IsAdmin         bool
	Chrome          bool
	User            *User
	Nav             []NavItem
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
