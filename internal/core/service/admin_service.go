package service

import "crypto/subtle"

// AdminService checks the flat admin credential pair from configuration.
// There is no hashing, rate limiting or session issuance.
type AdminService struct {
	username string
	password string
}

func NewAdminService(username, password string) *AdminService {
	return &AdminService{username: username, password: password}
}

// Validate reports whether the pair matches the configured secrets. An
// unconfigured pair never validates.
func (s *AdminService) Validate(username, password string) bool {
	if s.username == "" || s.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	return userOK && passOK
}
