package monitoring

import (
	"fmt"
	"strings"

	"github.com/acadwell/wellness-bot/internal/models"
)

// StaffDirectory resolves alert roles to people
type StaffDirectory interface {
	ByRole(role models.Role) []models.StaffMember
}

// StaticDirectory is a fixed staff list loaded from configuration
type StaticDirectory struct {
	members map[models.Role][]models.StaffMember
}

// NewStaticDirectory parses entries of the form "role:id:name:email".
// The email part may be empty for in-app only staff.
func NewStaticDirectory(entries []string) (*StaticDirectory, error) {
	d := &StaticDirectory{members: make(map[models.Role][]models.StaffMember)}

	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid staff contact %q: want role:id:name:email", entry)
		}

		role := models.Role(strings.ToLower(strings.TrimSpace(parts[0])))
		switch role {
		case models.RoleTeacher, models.RoleCounselor, models.RoleAdmin:
		default:
			return nil, fmt.Errorf("invalid staff contact %q: unknown role %q", entry, role)
		}

		member := models.StaffMember{
			ID:    strings.TrimSpace(parts[1]),
			Name:  strings.TrimSpace(parts[2]),
			Email: strings.TrimSpace(parts[3]),
			Role:  role,
		}
		if member.ID == "" {
			return nil, fmt.Errorf("invalid staff contact %q: id is required", entry)
		}
		d.members[role] = append(d.members[role], member)
	}

	return d, nil
}

// ByRole returns the staff holding role
func (d *StaticDirectory) ByRole(role models.Role) []models.StaffMember {
	return append([]models.StaffMember(nil), d.members[role]...)
}
