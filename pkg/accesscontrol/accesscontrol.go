package accesscontrol

import (
	"fmt"

	"fincheck-controlplane/pkg/config"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("accesscontrol", fx.Provide(NewEnforcer))

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const defaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var defaultPolicies = [][]string{
	{RoleAdmin, "/v1/admin/*", "*"},
}

// NewEnforcer loads ACCESS_CONTROL.MODEL/POLICY files when both are configured
// and otherwise builds the built-in admin policy in memory.
func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	if cfg.AccessControl.Model != "" && cfg.AccessControl.Policy != "" {
		zap.L().Info("loading access control policy",
			zap.String("model", cfg.AccessControl.Model),
			zap.String("policy", cfg.AccessControl.Policy),
		)
		return casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	}
	return NewDefaultEnforcer()
}

func NewDefaultEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("parse access control model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("seed policies: %w", err)
	}

	return e, nil
}
