package hostuser_test

import (
	"context"
	"testing"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/goliatone/go-ipb-auth/hostuser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteCreateForumMembers = `CREATE TABLE ibf_members (
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

func TestLoginAndSyncIntoHostStore(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	// The forum lives in its own database: a sync holds a forum connection
	// while it writes to the host store.
	db := openSQLite(t)
	_, err := db.Exec(sqliteCreateForumMembers)
	require.NoError(t, err)

	salt := "k3y5a"
	member := ipbauth.Member{
		MemberID:    42,
		Name:        "jane_roe",
		Email:       "jane@example.com",
		PassHash:    ipbauth.LegacyHash("open sesame", salt),
		PassSalt:    &salt,
		GroupID:     4,
		GroupOthers: "6",
		DisplayName: "Jane R.",
	}
	_, err = db.NewInsert().Model(&member).ModelTableExpr("ibf_members").Exec(ctx)
	require.NoError(t, err)

	cfg := ipbauth.DefaultConfig()
	cfg.DBDatabase = "forum"
	cfg.GroupMap = ipbauth.GroupMap{
		"sysop":  {4},
		"editor": {6, 7},
		"banned": {2},
	}

	provider := ipbauth.NewProvider(cfg, ipbauth.NewBunConnector(db), store)

	result := provider.Authenticate(ctx, ipbauth.Credentials{Username: "jane roe", Password: "open sesame"})
	require.True(t, result.Passed(), "reason: %s", result.Reason)
	assert.Equal(t, "Jane roe", result.Username)

	user, err := store.Create(ctx, &hostuser.User{Username: result.Username})
	require.NoError(t, err)
	require.NoError(t, store.AddToGroup(ctx, user, "banned"))

	require.NoError(t, provider.OnLoginCompleted(ctx, user))

	saved, err := store.GetByUsername(ctx, "Jane roe")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", saved.Email)
	assert.Equal(t, "Jane R.", saved.RealName)
	assert.False(t, saved.EmailValidated)

	groups, err := store.EffectiveGroups(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "sysop"}, groups)
}
