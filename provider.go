package ipbauth

import (
	"context"
	"time"
)

// Provider authenticates host logins against the IPB forum database and
// synchronizes host user profiles after login.
type Provider struct {
	config        Config
	connector     ForumConnector
	users         HostUserStore
	canonicalizer Canonicalizer
	logger        Logger
	activitySink  ActivitySink
	now           func() time.Time
}

// NewProvider returns a Provider for cfg. users may be nil when the host only
// needs authentication; profile sync then fails with ErrUnexpectedRequest.
func NewProvider(cfg Config, connector ForumConnector, users HostUserStore) *Provider {
	return &Provider{
		config:        cfg,
		connector:     connector,
		users:         users,
		canonicalizer: NewTitleCanonicalizer(),
		logger:        noopLogger{},
		activitySink:  noopActivitySink{},
		now:           time.Now,
	}
}

func (p *Provider) WithLogger(logger Logger) *Provider {
	p.logger = normalizeLogger(logger)
	return p
}

// WithCanonicalizer overrides the host username rules
func (p *Provider) WithCanonicalizer(c Canonicalizer) *Provider {
	if c != nil {
		p.canonicalizer = c
	}
	return p
}

// WithActivitySink configures an ActivitySink for login and sync events.
func (p *Provider) WithActivitySink(sink ActivitySink) *Provider {
	p.activitySink = normalizeActivitySink(sink)
	return p
}

// Config returns the provider configuration
func (p *Provider) Config() Config {
	return p.config
}

// Authenticate verifies creds against the forum members table
func (p *Provider) Authenticate(ctx context.Context, creds Credentials) Result {
	result := p.authenticate(ctx, creds)

	if result.Passed() {
		p.logger.Info("ipb login succeeded", "username", result.Username)
		p.emit(ctx, ActivityEventLoginSuccess, result.Username, "", nil)
		return result
	}

	switch result.Reason {
	case ReasonNoUser:
		p.logger.Debug("ipb login rejected", "username", creds.Username)
	default:
		p.logger.Error("ipb login failed", "username", creds.Username, "reason", result.Reason, "error", result.Cause)
	}
	p.emit(ctx, ActivityEventLoginFailure, creds.Username, result.Reason, nil)

	return result
}

func (p *Provider) authenticate(ctx context.Context, creds Credentials) Result {
	if creds.Username == "" || creds.Password == "" {
		return Fail(ReasonUnexpectedRequest, ErrUnexpectedRequest)
	}

	schema := p.config.Schema()

	sess, err := p.connector.Connect(ctx, schema)
	if err != nil {
		return Fail(ReasonDBAccess, dbAccessError(err))
	}
	defer p.closeSession(sess)

	username, err := p.disambiguate(ctx, sess, lookupName(creds.Username))
	if err != nil {
		return Fail(ReasonDB, dbError(err, "underscore_lookup"))
	}

	candidates, err := sess.FindLoginCandidates(ctx, username)
	if err != nil {
		return Fail(ReasonDB, dbError(err, "login_lookup"))
	}

	if len(candidates) != 1 {
		return Fail(ReasonNoUser, nil)
	}

	member := candidates[0]
	if !VerifyPassword(creds.Password, member.PassHash, member.Salt()) {
		return Fail(ReasonNoUser, nil)
	}

	if canonical, ok := p.canonicalizer.Canonical(member.Name); ok {
		return Pass(canonical)
	}

	return Pass(creds.Username)
}

// UserExists reports whether exactly one forum member carries username,
// with or without spaces turned into underscores. Lookup failures count as
// not existing.
func (p *Provider) UserExists(ctx context.Context, username string) bool {
	sess, err := p.connector.Connect(ctx, p.config.Schema())
	if err != nil {
		p.logger.Warn("ipb user exists: forum database unreachable", "error", err)
		return false
	}
	defer p.closeSession(sess)

	name := lookupName(username)
	count, err := sess.CountMembersByNames(ctx, name, underscoreVariant(name))
	if err != nil {
		p.logger.Error("ipb user exists: lookup failed", "username", username, "error", err)
		return false
	}

	return count == 1
}

// disambiguate adopts the underscore spelling of name when exactly one
// member is stored under it.
func (p *Provider) disambiguate(ctx context.Context, sess ForumSession, name string) (string, error) {
	variant := underscoreVariant(name)
	count, err := sess.CountMembersByName(ctx, variant)
	if err != nil {
		return name, err
	}

	if count == 1 {
		return variant, nil
	}

	return name, nil
}

func (p *Provider) closeSession(sess ForumSession) {
	if err := sess.Close(); err != nil {
		p.logger.Warn("ipb forum session close error", "error", err)
	}
}

func (p *Provider) emit(ctx context.Context, eventType ActivityEventType, username string, reason Reason, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		Reason:     reason,
		Metadata:   metadata,
		OccurredAt: p.now(),
	}

	if err := normalizeActivitySink(p.activitySink).Record(ctx, event); err != nil {
		p.logger.Warn("activity sink record error", "error", err)
	}
}

var _ ExternalIdentityProvider = (*Provider)(nil)
var _ UsernameNormalizer = (*Provider)(nil)
var _ ExistenceChecker = (*Provider)(nil)
