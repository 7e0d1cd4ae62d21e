package usersource

import "context"

// StaticSource yields the built-in development identities.
type StaticSource struct {
	Password string
}

// NewStaticSource returns the fallback source using password for every user.
func NewStaticSource(password string) *StaticSource {
	return &StaticSource{Password: password}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Users(_ context.Context) ([]DesiredUser, error) {
	return []DesiredUser{
		{
			Username: "testuser",
			Email:    "testuser@example.com",
			Password: s.Password,
			Roles:    []string{DefaultRole},
		},
		{
			Username: "user1",
			Email:    "user1@example.com",
			Password: s.Password,
			Roles:    []string{DefaultRole},
		},
	}, nil
}
