package ipbauth

import "context"

// ResolveCanonicalUsername maps a submitted username to the host canonical
// form of the matching forum member. Whenever no single member matches, or
// the forum cannot be queried, the input is returned untouched.
func (p *Provider) ResolveCanonicalUsername(ctx context.Context, username string) string {
	resolved, ok := p.resolve(ctx, username)
	if !ok {
		return username
	}
	return resolved
}

func (p *Provider) resolve(ctx context.Context, username string) (string, bool) {
	sess, err := p.connector.Connect(ctx, p.config.Schema())
	if err != nil {
		p.logger.Warn("ipb resolve username: forum database unreachable", "error", err)
		return "", false
	}
	defer p.closeSession(sess)

	name, err := p.disambiguate(ctx, sess, lookupName(username))
	if err != nil {
		p.logger.Warn("ipb resolve username: underscore lookup failed", "username", username, "error", err)
	}

	names, err := sess.FindMemberNames(ctx, name)
	if err != nil {
		p.logger.Warn("ipb resolve username: lookup failed", "username", username, "error", err)
		return "", false
	}

	if len(names) != 1 {
		return "", false
	}

	return p.canonicalizer.Canonical(names[0])
}
