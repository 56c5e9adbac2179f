package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const (
	ActionUpdate         = "update"
	ActionChangePassword = "change_password"
	ActionDelete         = "delete"
	ActionReadEvents     = "read_events"
)

const defaultQuery = "data.blog.authz.allow"

// DefaultPolicy lets administrators manage any account and everyone else
// manage only their own.
const DefaultPolicy = `package blog.authz

default allow := false

allow if {
	input.subject.admin
	input.action in {"update", "delete", "read_events"}
}

allow if {
	input.subject.id != ""
	input.subject.id == input.resource.owner_id
}
`

// Subject is the caller being authorized.
type Subject struct {
	ID    string `json:"id"`
	Admin bool   `json:"admin"`
}

type Input struct {
	Subject  Subject  `json:"subject"`
	Action   string   `json:"action"`
	Resource Resource `json:"resource"`
}

type Resource struct {
	OwnerID string `json:"owner_id"`
}

// Authorizer decides whether a subject may perform an action on an account.
type Authorizer interface {
	Allowed(ctx context.Context, input Input) (bool, error)
}

// OPAAuthorizer evaluates a rego module prepared once at construction.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

func NewOPAAuthorizer(ctx context.Context, module string) (*OPAAuthorizer, error) {
	if module == "" {
		module = DefaultPolicy
	}
	query, err := rego.New(
		rego.Query(defaultQuery),
		rego.Module("authz.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAAuthorizer{query: query}, nil
}

func (a *OPAAuthorizer) Allowed(ctx context.Context, input Input) (bool, error) {
	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	return rs.Allowed(), nil
}
