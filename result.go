package ipbauth

// Status is the verdict handed back to the host login flow
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusAbstain Status = "abstain"
)

// Reason explains a failed verdict. Values match the error text codes.
type Reason = string

const (
	ReasonDBAccess          Reason = TextCodeDBAccess
	ReasonDB                Reason = TextCodeDB
	ReasonNoUser            Reason = TextCodeNoUser
	ReasonUnexpectedRequest Reason = TextCodeUnexpectedRequest
)

// Result is the outcome of an authentication attempt
type Result struct {
	Status   Status
	Username string
	Reason   Reason
	// Cause holds the underlying error for db failures, if any
	Cause error
}

// Pass builds a successful verdict for the canonical username
func Pass(username string) Result {
	return Result{Status: StatusPass, Username: username}
}

// Fail builds a failed verdict
func Fail(reason Reason, cause error) Result {
	return Result{Status: StatusFail, Reason: reason, Cause: cause}
}

// Abstain lets the host fall through to its next provider
func Abstain() Result {
	return Result{Status: StatusAbstain}
}

func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// Err maps a failed verdict onto the package sentinel errors. Pass and
// Abstain return nil.
func (r Result) Err() error {
	if r.Status != StatusFail {
		return nil
	}

	if r.Cause != nil {
		return r.Cause
	}

	switch r.Reason {
	case ReasonDBAccess:
		return ErrDBAccess
	case ReasonDB:
		return ErrDB
	case ReasonNoUser:
		return ErrNoUser
	default:
		return ErrUnexpectedRequest
	}
}
