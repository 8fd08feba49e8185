// Package hostuser is a bun backed host user store for applications that do
// not bring their own. It implements ipbauth.HostUserStore.
package hostuser

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ipbauth "github.com/goliatone/go-ipb-auth"
)

const TextCodeUnsupportedUser = "unsupported-host-user"

// ErrUnsupportedUser is returned when the store is handed a foreign HostUser
var ErrUnsupportedUser = goerrors.New("host user is not a *hostuser.User", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedUser).
	WithCode(goerrors.CodeBadRequest)

// Store keeps host users in the users table and their group memberships in
// user_groups. User records go through the generic repository, memberships
// are plain bun queries.
type Store struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ ipbauth.HostUserStore        = (*Store)(nil)
	_ repository.Repository[*User] = (*Store)(nil)
)

func NewStore(db *bun.DB) *Store {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &Store{
		Repository: repo,
		db:         db,
	}
}

// CreateSchema creates the users and user_groups tables if missing
func (s *Store) CreateSchema(ctx context.Context) error {
	models := []any{(*User)(nil), (*UserGroup)(nil)}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create host user schema")
		}
	}
	return nil
}

// Create inserts a new host user
func (s *Store) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return s.CreateTx(ctx, s.db, record, criteria...)
}

func (s *Store) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	if record == nil {
		return nil, goerrors.New("host user is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	record.Username = strings.TrimSpace(record.Username)
	if record.Username == "" {
		return nil, goerrors.New("host username is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	prepareUserDefaults(record)
	return s.Repository.CreateTx(ctx, tx, record, criteria...)
}

// GetByIdentifier looks a host user up by exact username
func (s *Store) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return s.GetByIdentifierTx(ctx, s.db, identifier, criteria...)
}

func (s *Store) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.username = ?", identifier).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": identifier,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetByUsername is GetByIdentifier under the name the CLI uses
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.GetByIdentifier(ctx, username)
}

// EffectiveGroups implements ipbauth.HostUserStore
func (s *Store) EffectiveGroups(ctx context.Context, hu ipbauth.HostUser) ([]string, error) {
	user, err := asUser(hu)
	if err != nil {
		return nil, err
	}

	var groups []string
	err = s.db.NewSelect().
		Model((*UserGroup)(nil)).
		Column("group_name").
		Where("?TableAlias.user_id = ?", user.ID).
		Order("group_name ASC").
		Scan(ctx, &groups)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// AddToGroup implements ipbauth.HostUserStore. Adding an existing
// membership is a no-op.
func (s *Store) AddToGroup(ctx context.Context, hu ipbauth.HostUser, group string) error {
	user, err := asUser(hu)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = s.db.NewInsert().
		Model(&UserGroup{UserID: user.ID, GroupName: group, CreatedAt: &now}).
		Ignore().
		Exec(ctx)
	return err
}

// RemoveFromGroup implements ipbauth.HostUserStore
func (s *Store) RemoveFromGroup(ctx context.Context, hu ipbauth.HostUser, group string) error {
	user, err := asUser(hu)
	if err != nil {
		return err
	}

	_, err = s.db.NewDelete().
		Model((*UserGroup)(nil)).
		Where("user_id = ?", user.ID).
		Where("group_name = ?", group).
		Exec(ctx)
	return err
}

// Save implements ipbauth.HostUserStore. Only the synced columns are
// written, zero values included: a sync may clear the confirmation flag.
func (s *Store) Save(ctx context.Context, hu ipbauth.HostUser) error {
	user, err := asUser(hu)
	if err != nil {
		return err
	}

	now := time.Now()
	user.UpdatedAt = &now

	res, err := s.db.NewUpdate().
		Model(user).
		Column("email", "real_name", "is_email_verified", "email_verified_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id":       user.ID.String(),
				"username": user.Username,
			})
	}
	return nil
}

func prepareUserDefaults(record *User) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now
}

func asUser(hu ipbauth.HostUser) (*User, error) {
	user, ok := hu.(*User)
	if !ok || user == nil {
		return nil, ErrUnsupportedUser
	}
	return user, nil
}

var _ ipbauth.HostUser = (*User)(nil)
