package ipbauth

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-sql-driver/mysql"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

const (
	DefaultDriver  = "mysql"
	DefaultPrefix  = "ibf_"
	DefaultVersion = 3
)

// Config holds the forum connection and sync options. It is built once by
// the host and passed by value; nothing mutates it after construction.
type Config struct {
	Driver      string        `toml:"db_driver"`
	DBHost      string        `toml:"db_host"`
	DBUsername  string        `toml:"db_username"`
	DBPassword  string        `toml:"db_password"`
	DBDatabase  string        `toml:"db_database"`
	DBPrefix    string        `toml:"db_prefix"`
	DialTimeout time.Duration `toml:"db_timeout"`

	// Version is the IPB major schema version (3, 4, 5...)
	Version int `toml:"version"`

	// GroupMap maps host groups to one or many IPB group ids
	GroupMap GroupMap `toml:"group_map"`

	// GroupValidating is the IPB group id of members awaiting email
	// validation. Only consulted for schema version 4.
	GroupValidating int64 `toml:"group_validating"`
}

// DefaultConfig returns a Config with the extension defaults
func DefaultConfig() Config {
	return Config{
		Driver:      DefaultDriver,
		DBHost:      "localhost",
		DBPrefix:    DefaultPrefix,
		DialTimeout: 5 * time.Second,
		Version:     DefaultVersion,
		GroupMap:    GroupMap{},
	}
}

// Schema derives the table layout descriptor for the configured version
func (c Config) Schema() Schema {
	return SchemaFor(c.DBPrefix, c.Version)
}

// DSN builds a go-sql-driver/mysql data source name
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUsername
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.DBHost
	mc.DBName = c.DBDatabase
	mc.Timeout = c.DialTimeout
	return mc.FormatDSN()
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required),
		validation.Field(&c.DBHost, validation.Required),
		validation.Field(&c.DBDatabase, validation.Required),
		validation.Field(&c.Version, validation.Required, validation.Min(1)),
		validation.Field(&c.GroupMap, validation.By(validateGroupMap)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid ipb configuration").
			WithTextCode(TextCodeInvalidConfig)
	}
	return nil
}

func validateGroupMap(value any) error {
	gm, _ := value.(GroupMap)
	for group, ids := range gm {
		if strings.TrimSpace(group) == "" {
			return fmt.Errorf("group map has an empty host group name")
		}
		if len(ids) == 0 {
			return fmt.Errorf("group %q maps to no forum groups", group)
		}
	}
	return nil
}

// LoadConfig reads a TOML file on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode ipb config file").
			WithTextCode(TextCodeInvalidConfig).
			WithMetadata(map[string]any{"path": path})
	}
	if cfg.GroupMap == nil {
		cfg.GroupMap = GroupMap{}
	}
	return cfg, nil
}

// Environment variables recognized by ApplyEnv
const (
	EnvDBHost     = "IPB_DB_HOST"
	EnvDBUsername = "IPB_DB_USERNAME"
	EnvDBPassword = "IPB_DB_PASSWORD"
	EnvDBDatabase = "IPB_DB_DATABASE"
	EnvDBPrefix   = "IPB_DB_PREFIX"
	EnvVersion    = "IPB_VERSION"
)

// ApplyEnv overrides connection settings from the process environment and
// from the given dotenv files. Values found in the files win over the
// process environment. Missing files are an error.
func (c Config) ApplyEnv(files ...string) (Config, error) {
	values := map[string]string{}
	for _, key := range []string{EnvDBHost, EnvDBUsername, EnvDBPassword, EnvDBDatabase, EnvDBPrefix, EnvVersion} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	if len(files) > 0 {
		fromFiles, err := godotenv.Read(files...)
		if err != nil {
			return c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read env files").
				WithTextCode(TextCodeInvalidConfig)
		}
		for k, v := range fromFiles {
			values[k] = v
		}
	}

	if v, ok := values[EnvDBHost]; ok {
		c.DBHost = v
	}
	if v, ok := values[EnvDBUsername]; ok {
		c.DBUsername = v
	}
	if v, ok := values[EnvDBPassword]; ok {
		c.DBPassword = v
	}
	if v, ok := values[EnvDBDatabase]; ok {
		c.DBDatabase = v
	}
	if v, ok := values[EnvDBPrefix]; ok {
		c.DBPrefix = v
	}
	if v, ok := values[EnvVersion]; ok {
		version, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid "+EnvVersion).
				WithTextCode(TextCodeInvalidConfig)
		}
		c.Version = version
	}

	return c, nil
}

// GroupMap maps a host group name to the IPB group ids granting it
type GroupMap map[string]GroupIDs

// Groups returns the host group names in sorted order
func (m GroupMap) Groups() []string {
	out := make([]string, 0, len(m))
	for group := range m {
		out = append(out, group)
	}
	sort.Strings(out)
	return out
}

// GroupIDs is one or many IPB group ids. In TOML it may be written as a
// single integer, a list of integers or a comma separated string.
type GroupIDs []int64

// UnmarshalTOML implements toml.Unmarshaler
func (g *GroupIDs) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		*g = GroupIDs{v}
	case string:
		ids, err := parseGroupList(v, true)
		if err != nil {
			return err
		}
		*g = ids
	case []any:
		ids := make(GroupIDs, 0, len(v))
		for _, item := range v {
			switch id := item.(type) {
			case int64:
				ids = append(ids, id)
			case string:
				parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid group id %q: %w", id, err)
				}
				ids = append(ids, parsed)
			default:
				return fmt.Errorf("invalid group id %v", item)
			}
		}
		*g = ids
	default:
		return fmt.Errorf("unsupported group ids value %T", data)
	}
	return nil
}

// parseGroupList parses a comma separated IPB group list such as
// mgroup_others. Blank entries are skipped. With strict unset, entries that
// are not numbers are skipped too.
func parseGroupList(list string, strict bool) (GroupIDs, error) {
	parts := strings.Split(list, ",")
	ids := make(GroupIDs, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("invalid group id %q: %w", part, err)
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
