package ipbauth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateMembers = `CREATE TABLE %s (
    member_id INTEGER NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    members_pass_hash TEXT NOT NULL DEFAULT '',
    members_pass_salt TEXT,
    member_group_id INTEGER NOT NULL DEFAULT 3,
    mgroup_others TEXT NOT NULL DEFAULT '',
    temp_ban INTEGER NOT NULL DEFAULT 0,
    members_display_name TEXT NOT NULL DEFAULT ''
);`
	sqliteCreateValidating = `CREATE TABLE %s (
    vid TEXT NOT NULL PRIMARY KEY,
    member_id INTEGER NOT NULL,
    lost_pass INTEGER NOT NULL DEFAULT 0,
    forgot_security INTEGER NOT NULL DEFAULT 0
);`
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type forumFixture struct {
	db        *bun.DB
	schema    ipbauth.Schema
	connector *ipbauth.BunConnector
}

func setupForum(t *testing.T, cfg ipbauth.Config) *forumFixture {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	schema := cfg.Schema()

	_, err = bunDB.Exec(fmt.Sprintf(sqliteCreateMembers, schema.MembersTable()))
	require.NoError(t, err)

	if schema.HasValidatingTable() {
		_, err = bunDB.Exec(fmt.Sprintf(sqliteCreateValidating, schema.ValidatingTable()))
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return &forumFixture{
		db:     bunDB,
		schema: schema,
		connector: ipbauth.NewBunConnector(bunDB, ipbauth.WithConnectorClock(func() time.Time {
			return fixedNow
		})),
	}
}

func (f *forumFixture) addMember(t *testing.T, member ipbauth.Member) {
	t.Helper()

	_, err := f.db.NewInsert().
		Model(&member).
		ModelTableExpr(f.schema.MembersTable()).
		Exec(context.Background())
	require.NoError(t, err)
}

func (f *forumFixture) addValidating(t *testing.T, row ipbauth.Validating) {
	t.Helper()

	_, err := f.db.NewInsert().
		Model(&row).
		ModelTableExpr(f.schema.ValidatingTable()).
		Exec(context.Background())
	require.NoError(t, err)
}

func configFor(version int) ipbauth.Config {
	cfg := ipbauth.DefaultConfig()
	cfg.DBDatabase = "forum"
	cfg.Version = version
	return cfg
}

func legacyMember(id int64, name, password, salt string) ipbauth.Member {
	return ipbauth.Member{
		MemberID:    id,
		Name:        name,
		Email:       name + "@example.com",
		PassHash:    ipbauth.LegacyHash(password, salt),
		PassSalt:    &salt,
		GroupID:     3,
		DisplayName: name,
	}
}
