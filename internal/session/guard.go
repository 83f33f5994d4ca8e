package session

import "strings"

// DashboardRoute is the landing route for authenticated users.
const DashboardRoute = "/dashboard"

var publicRoutes = map[string]bool{
	"/login":    true,
	"/register": true,
}

var adminRoutes = []string{"/users", "/payments", "/analytics"}

// Guard returns the route that should actually be rendered for route.
// Unauthenticated users are sent to the login route, authenticated users are
// kept off the public auth pages, and admin pages require Elevated.
func (s *Session) Guard(route string) string {
	if route == "" || route == "/" {
		route = DashboardRoute
	}
	authed := s.Authenticated()

	if publicRoutes[route] {
		if authed {
			return DashboardRoute
		}
		return route
	}
	if !authed {
		return s.loginRoute
	}
	if isAdminRoute(route) && s.Strategy() != Elevated {
		return DashboardRoute
	}
	return route
}

func isAdminRoute(route string) bool {
	for _, prefix := range adminRoutes {
		if route == prefix || strings.HasPrefix(route, prefix+"/") {
			return true
		}
	}
	return false
}

// Navigate sends the user to route through the configured navigator.
func (s *Session) Navigate(route string) { s.nav.Navigate(route) }
