package ipbauth

import "context"

// AccountCreationType tells the host whether the provider can create accounts
type AccountCreationType string

const (
	AccountCreationNone AccountCreationType = "none"
)

// ChangeStatus answers a host query about authentication data changes
type ChangeStatus string

const (
	ChangeOK      ChangeStatus = "ok"
	ChangeIgnored ChangeStatus = "ignored"
)

// PropertyNickname is the only user property hosts may let users edit
const PropertyNickname = "nickname"

// AccountCreationType reports that forum accounts are never created
func (p *Provider) AccountCreationType() AccountCreationType {
	return AccountCreationNone
}

// BeginAccountCreation always abstains so the host can try other providers
func (p *Provider) BeginAccountCreation(ctx context.Context, username string) Result {
	return Abstain()
}

// AllowsPropertyChange reports whether a host user property may be edited
// locally without being overwritten by the next profile sync.
func (p *Provider) AllowsPropertyChange(property string) bool {
	return property == PropertyNickname
}

// AllowsAuthenticationDataChange reports how the provider treats a
// credential change request. Requests carrying Credentials belong to this
// provider; everything else is ignored.
func (p *Provider) AllowsAuthenticationDataChange(req any) ChangeStatus {
	switch req.(type) {
	case Credentials, *Credentials:
		return ChangeOK
	default:
		return ChangeIgnored
	}
}

// ChangeAuthenticationData is a no-op: the forum database is never written.
func (p *Provider) ChangeAuthenticationData(ctx context.Context, creds Credentials) error {
	return nil
}
