package ipbauth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
)

// ForumConnector hands out one forum session per operation
type ForumConnector interface {
	Connect(ctx context.Context, schema Schema) (ForumSession, error)
}

// ForumSession runs the read-only lookups of a single operation. Callers
// must Close it on every path.
type ForumSession interface {
	// CountMembersByName counts members whose name matches case-insensitively.
	// Counting stops at 2, which is enough to tell unique from ambiguous.
	CountMembersByName(ctx context.Context, name string) (int, error)
	// CountMembersByNames counts members matching any of the given names
	CountMembersByNames(ctx context.Context, names ...string) (int, error)
	// FindLoginCandidates returns members matching identifier by name or
	// email, excluding banned members when the schema has a ban filter.
	FindLoginCandidates(ctx context.Context, identifier string) ([]Member, error)
	// FindMemberNames returns the stored names of members matching name
	FindMemberNames(ctx context.Context, name string) ([]string, error)
	// FindMemberProfiles returns profile columns for members matching name
	FindMemberProfiles(ctx context.Context, name string) ([]Member, error)
	// CountPendingValidations counts validating rows that are not lost
	// password or forgotten security answer requests.
	CountPendingValidations(ctx context.Context, memberID int64) (int, error)
	Close() error
}

// BunConnector implements ForumConnector on top of a bun.DB pool. Each
// Connect pins a dedicated connection from the pool.
type BunConnector struct {
	db  *bun.DB
	now func() time.Time
}

// ConnectorOption customizes a BunConnector
type ConnectorOption func(*BunConnector)

// WithConnectorClock sets the clock used by the temporary ban filter
func WithConnectorClock(now func() time.Time) ConnectorOption {
	return func(c *BunConnector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewBunConnector wraps db
func NewBunConnector(db *bun.DB, opts ...ConnectorOption) *BunConnector {
	c := &BunConnector{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// OpenForumDB opens the MySQL forum database described by cfg. The pool is
// lazy: connection problems surface on the first Connect.
func OpenForumDB(cfg Config) (*bun.DB, error) {
	if cfg.Driver != "" && cfg.Driver != DefaultDriver {
		return nil, fmt.Errorf("unsupported forum database driver %q", cfg.Driver)
	}

	sqldb, err := sql.Open(DefaultDriver, cfg.DSN())
	if err != nil {
		return nil, dbAccessError(err)
	}

	return bun.NewDB(sqldb, mysqldialect.New()), nil
}

func (c *BunConnector) Connect(ctx context.Context, schema Schema) (ForumSession, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &bunSession{
		conn:   conn,
		schema: schema,
		now:    c.now,
	}, nil
}

// Close closes the underlying pool
func (c *BunConnector) Close() error {
	return c.db.Close()
}

type bunSession struct {
	conn   bun.Conn
	schema Schema
	now    func() time.Time
}

const memberAlias = "member"

func (s *bunSession) members(dest any) *bun.SelectQuery {
	return s.conn.NewSelect().
		Model(dest).
		ModelTableExpr("? AS "+memberAlias, bun.Ident(s.schema.MembersTable()))
}

func (s *bunSession) CountMembersByName(ctx context.Context, name string) (int, error) {
	return s.CountMembersByNames(ctx, name)
}

func (s *bunSession) CountMembersByNames(ctx context.Context, names ...string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	var rows []Member
	err := s.members(&rows).
		Column("email").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, name := range names {
				q = q.WhereOr("lower(member.name) = lower(?)", name)
			}
			return q
		}).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

func (s *bunSession) FindLoginCandidates(ctx context.Context, identifier string) ([]Member, error) {
	var rows []Member
	q := s.members(&rows).
		Column("name", "members_pass_hash", "members_pass_salt").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(member.name) = lower(?)", identifier).
				WhereOr("lower(member.email) = lower(?)", identifier)
		})

	if s.schema.BanFilter {
		q = q.
			Where("member.temp_ban != -1").
			Where("member.temp_ban < ?", s.now().Unix())
	}

	if err := q.Limit(2).Scan(ctx); err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *bunSession) FindMemberNames(ctx context.Context, name string) ([]string, error) {
	var rows []Member
	err := s.members(&rows).
		Column("name").
		Where("lower(member.name) = lower(?)", name).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

func (s *bunSession) FindMemberProfiles(ctx context.Context, name string) ([]Member, error) {
	var rows []Member
	columns := []string{"member_id", "member_group_id", "mgroup_others", "email"}
	if s.schema.DisplayNameColumn != "" {
		columns = append(columns, s.schema.DisplayNameColumn)
	}

	err := s.members(&rows).
		Column(columns...).
		Where("lower(member.name) = lower(?)", name).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	if s.schema.DisplayNameColumn == "name" {
		for i := range rows {
			rows[i].DisplayName = rows[i].Name
		}
	}

	return rows, nil
}

func (s *bunSession) CountPendingValidations(ctx context.Context, memberID int64) (int, error) {
	return s.conn.NewSelect().
		Model((*Validating)(nil)).
		ModelTableExpr("? AS val", bun.Ident(s.schema.ValidatingTable())).
		Where("val.member_id = ?", memberID).
		Where("val.lost_pass != 1").
		Where("val.forgot_security != 1").
		Count(ctx)
}

func (s *bunSession) Close() error {
	return s.conn.Close()
}

var (
	_ ForumConnector = (*BunConnector)(nil)
	_ ForumSession   = (*bunSession)(nil)
)
