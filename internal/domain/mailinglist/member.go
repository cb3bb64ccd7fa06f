// Package mailinglist parses the team mailing-list member export.
package mailinglist

import (
	"fmt"
	"strings"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/domain/tabular"
)

// Member is one subscribed address. The export carries more columns than we
// need; only the address matters for membership checks.
type Member struct {
	Email string
	Role  string
}

// MemberColumns names the export's columns.
type MemberColumns struct {
	Email string
	Role  string
}

func DefaultMemberColumns() MemberColumns {
	return MemberColumns{
		Email: "Email address",
		Role:  "Role",
	}
}

// ParseMemberCSV parses the mailing-list export. Group exports prepend a
// "Members for <group>" banner line, so the header is located by the email
// column. Rows without a plausible address are dropped.
func ParseMemberCSV(text string, cols MemberColumns) ([]Member, error) {
	rows, err := tabular.ReadCSV(text)
	if err != nil {
		return nil, fmt.Errorf("read mailing list csv: %w", err)
	}

	headerIdx := tabular.HeaderIndex(rows, cols.Email)
	if headerIdx < 0 {
		return nil, fmt.Errorf("mailing list export: header row with %q not found: %w", cols.Email, tabular.ErrNoRows)
	}

	m := schema.Discover(rows[headerIdx])
	emailIdx, _ := m.Index(cols.Email)
	roleIdx := -1
	if i, ok := m.Index(cols.Role); ok {
		roleIdx = i
	}

	members := make([]Member, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		email := tabular.Cell(row, emailIdx)
		if !strings.Contains(email, "@") {
			continue
		}
		members = append(members, Member{
			Email: email,
			Role:  tabular.Cell(row, roleIdx),
		})
	}

	if len(members) == 0 {
		return nil, fmt.Errorf("mailing list export: %w", tabular.ErrNoRows)
	}
	return members, nil
}

// ContainsEmail reports whether email appears in members, compared
// case-insensitively. Membership is exact equality, never fuzzy.
func ContainsEmail(members []Member, email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, m := range members {
		if strings.EqualFold(m.Email, email) {
			return true
		}
	}
	return false
}
