package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/platform/config"
	"ptoinfo/internal/platform/querier"
)

type seedLeaveType struct {
	name, code string
	paid       bool
}

var defaultLeaveTypes = []seedLeaveType{
	{name: "Vacation", code: "VAC", paid: true},
	{name: "Sick Leave", code: "SICK", paid: true},
	{name: "Unpaid Leave", code: "UNPAID", paid: false},
}

// Seed makes sure the default tenant, its roles, the leave types the PTO
// page lists and the admin user exist. It runs in one transaction and is
// safe to repeat.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		s := seeder{q: tx}
		return s.run(ctx, cfg)
	})
}

type seeder struct {
	q querier.Querier
}

func (s seeder) run(ctx context.Context, cfg config.Config) error {
	tenantID, err := s.tenant(ctx, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	roles, err := s.roles(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.grants(ctx, roles); err != nil {
		return err
	}
	for _, lt := range defaultLeaveTypes {
		if _, err := s.q.Exec(ctx,
			"INSERT INTO leave_types (tenant_id, name, code, is_paid) VALUES ($1, $2, $3, $4) ON CONFLICT (tenant_id, code) DO NOTHING",
			tenantID, lt.name, lt.code, lt.paid); err != nil {
			return goerr.Wrap(err, "failed to seed leave type", goerr.V("code", lt.code))
		}
	}
	return s.admin(ctx, tenantID, roles[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func (s seeder) tenant(ctx context.Context, name string) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.q.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to ensure tenant", goerr.V("name", name))
	}
	return id, nil
}

func (s seeder) roles(ctx context.Context, tenantID string) (map[string]string, error) {
	ids := make(map[string]string, len(auth.RolePermissions))
	for role := range auth.RolePermissions {
		var id string
		if err := s.q.QueryRow(ctx,
			"INSERT INTO roles (tenant_id, name) VALUES ($1, $2) ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
			tenantID, role).Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to seed role", goerr.V("role", role))
		}
		ids[role] = id
	}
	return ids, nil
}

// grants inserts every permission key and links it to the roles that hold it.
func (s seeder) grants(ctx context.Context, roles map[string]string) error {
	permIDs := make(map[string]string, len(auth.DefaultPermissions))
	for _, key := range auth.DefaultPermissions {
		var id string
		if err := s.q.QueryRow(ctx,
			"INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key RETURNING id",
			key).Scan(&id); err != nil {
			return goerr.Wrap(err, "failed to seed permission", goerr.V("permission", key))
		}
		permIDs[key] = id
	}

	for role, keys := range auth.RolePermissions {
		for _, key := range keys {
			permID, ok := permIDs[key]
			if !ok {
				return goerr.New("role references unknown permission", goerr.V("role", role), goerr.V("permission", key))
			}
			if _, err := s.q.Exec(ctx,
				"INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				roles[role], permID); err != nil {
				return goerr.Wrap(err, "failed to grant permission", goerr.V("role", role), goerr.V("permission", key))
			}
		}
	}
	return nil
}

func (s seeder) admin(ctx context.Context, tenantID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var exists bool
	if err := s.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id = $1 AND email = $2)",
		tenantID, email).Scan(&exists); err != nil {
		return goerr.Wrap(err, "failed to look up admin user", goerr.V("email", email))
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return goerr.Wrap(err, "failed to hash admin password")
	}
	if _, err := s.q.Exec(ctx,
		"INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)",
		tenantID, email, hash, roleID); err != nil {
		return goerr.Wrap(err, "failed to create admin user", goerr.V("email", email))
	}
	return nil
}
