package ports

// AdminAuthenticator checks the flat admin credential pair.
type AdminAuthenticator interface {
	Validate(username, password string) bool
}
