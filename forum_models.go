package ipbauth

import (
	"github.com/uptrace/bun"
)

// Member is a row of the IPB members table. The table name is resolved at
// query time from the schema prefix; only the selected columns are filled.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:member"`

	MemberID    int64   `bun:"member_id,pk"`
	Name        string  `bun:"name"`
	Email       string  `bun:"email"`
	PassHash    string  `bun:"members_pass_hash"`
	PassSalt    *string `bun:"members_pass_salt"`
	GroupID     int64   `bun:"member_group_id"`
	GroupOthers string  `bun:"mgroup_others"`
	TempBan     int64   `bun:"temp_ban"`
	DisplayName string  `bun:"members_display_name"`
}

// Salt returns the stored salt, treating an empty column like NULL as the
// forum software does.
func (m Member) Salt() *string {
	if m.PassSalt == nil || *m.PassSalt == "" {
		return nil
	}
	return m.PassSalt
}

// Groups returns the secondary groups plus the primary group
func (m Member) Groups() GroupIDs {
	ids, _ := parseGroupList(m.GroupOthers, false)
	return append(ids, m.GroupID)
}

// Validating is a row of the IPB 4.6+ core_validating table
type Validating struct {
	bun.BaseModel `bun:"table:validating,alias:val"`

	VID            string `bun:"vid,pk"`
	MemberID       int64  `bun:"member_id"`
	LostPass       bool   `bun:"lost_pass"`
	ForgotSecurity bool   `bun:"forgot_security"`
}
