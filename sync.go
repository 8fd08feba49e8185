package ipbauth

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// OnLoginCompleted is the post-login hook: it runs SynchronizeProfile for
// the user the host just logged in.
func (p *Provider) OnLoginCompleted(ctx context.Context, user HostUser) error {
	return p.SynchronizeProfile(ctx, user)
}

// SynchronizeProfile copies email, confirmation state, display name and
// mapped group memberships from the forum member onto user, then saves it.
// A user without a matching forum member is left alone.
//
// Fields are set independently: when a secondary lookup fails the remaining
// fields are still synced and saved, and the failure is returned.
func (p *Provider) SynchronizeProfile(ctx context.Context, user HostUser) error {
	if user == nil {
		return goerrors.Wrap(ErrUnexpectedRequest, goerrors.CategoryBadInput, "profile sync requires a host user").
			WithTextCode(TextCodeUnexpectedRequest)
	}

	if p.users == nil {
		return goerrors.Wrap(ErrUnexpectedRequest, goerrors.CategoryInternal, "profile sync requires a host user store").
			WithTextCode(TextCodeUnexpectedRequest)
	}

	schema := p.config.Schema()

	sess, err := p.connector.Connect(ctx, schema)
	if err != nil {
		p.logger.Error("ipb profile sync: forum database unreachable", "username", user.GetUsername(), "error", err)
		return dbAccessError(err)
	}
	defer p.closeSession(sess)

	name, err := p.disambiguate(ctx, sess, lookupName(user.GetUsername()))
	if err != nil {
		p.logger.Warn("ipb profile sync: underscore lookup failed", "username", user.GetUsername(), "error", err)
	}

	members, err := sess.FindMemberProfiles(ctx, name)
	if err != nil {
		return dbError(err, "profile_lookup")
	}

	if len(members) != 1 {
		p.logger.Debug("ipb profile sync: no unique forum member", "username", user.GetUsername(), "matches", len(members))
		return nil
	}

	member := members[0]
	var errs []error

	user.SetEmail(member.Email)

	switch schema.Confirmation {
	case ConfirmationByGroup:
		user.SetEmailConfirmed(member.GroupID != p.config.GroupValidating)
	case ConfirmationByValidatingTable:
		pending, err := sess.CountPendingValidations(ctx, member.MemberID)
		if err != nil {
			p.logger.Error("ipb profile sync: validating lookup failed", "member_id", member.MemberID, "error", err)
			errs = append(errs, dbError(err, "validating_lookup"))
		} else {
			user.SetEmailConfirmed(pending == 0)
		}
	}

	user.SetRealName(member.DisplayName)

	changes, err := p.reconcileGroups(ctx, user, member)
	if err != nil {
		errs = append(errs, err)
	}

	if err := p.users.Save(ctx, user); err != nil {
		p.logger.Error("ipb profile sync: failed to save host user", "username", user.GetUsername(), "error", err)
		errs = append(errs, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save host user"))
		return errors.Join(errs...)
	}

	p.emit(ctx, ActivityEventProfileSynced, user.GetUsername(), "", map[string]any{
		"member_id":      member.MemberID,
		"groups_added":   changes.Add,
		"groups_removed": changes.Remove,
	})

	return errors.Join(errs...)
}

func (p *Provider) reconcileGroups(ctx context.Context, user HostUser, member Member) (GroupChanges, error) {
	if len(p.config.GroupMap) == 0 {
		return GroupChanges{}, nil
	}

	current, err := p.users.EffectiveGroups(ctx, user)
	if err != nil {
		return GroupChanges{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read host user groups")
	}

	changes := ReconcileGroups(member.Groups(), p.config.GroupMap, current)
	applied := GroupChanges{}

	for _, group := range changes.Add {
		if err := p.users.AddToGroup(ctx, user, group); err != nil {
			return applied, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add host user to group").
				WithMetadata(map[string]any{"group": group})
		}
		applied.Add = append(applied.Add, group)
	}

	for _, group := range changes.Remove {
		if err := p.users.RemoveFromGroup(ctx, user, group); err != nil {
			return applied, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove host user from group").
				WithMetadata(map[string]any{"group": group})
		}
		applied.Remove = append(applied.Remove, group)
	}

	if !applied.Empty() {
		p.logger.Info("ipb profile sync: groups reconciled", "username", user.GetUsername(), "added", applied.Add, "removed", applied.Remove)
	}

	return applied, nil
}
