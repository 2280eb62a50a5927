package domain

import "time"

// Role is the single role tag carried by every user. A user holds exactly one
// role; the backend is the only party that can change it.
type Role string

const (
	RoleClient  Role = "client"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RolePartner || r == RoleAdmin
}

// defaultRoutes maps each role to its default landing route. Used both for
// the post-login redirect and for the route guard's role-mismatch redirect.
var defaultRoutes = map[Role]string{
	RoleClient:  "/dashboard",
	RolePartner: "/partner/dashboard",
	RoleAdmin:   "/admin/dashboard",
}

// LoginRoute is where unauthenticated requests for protected content land.
const LoginRoute = "/login"

// DefaultRouteFor returns the landing route for a role. Unknown roles fall
// back to the login route.
func DefaultRouteFor(r Role) string {
	if route, ok := defaultRoutes[r]; ok {
		return route
	}
	return LoginRoute
}

// User models the authenticated actor as returned by the platform backend.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Role            Role       `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AuthSession is the credential pair returned by login and registration.
type AuthSession struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
