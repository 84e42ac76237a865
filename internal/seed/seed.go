// Package seed loads YAML fixtures of API keys and BGPVPNs into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// Load reads and parses a fixture file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML and checks that every entry names a tenant.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, k := range cfg.APIKeys {
		if k.Key == "" || k.TenantID == "" {
			return nil, fmt.Errorf("api_keys[%d]: key and tenant_id are required", i)
		}
	}
	for i, b := range cfg.BGPVPNs {
		if b.Name == "" || b.TenantID == "" {
			return nil, fmt.Errorf("bgpvpns[%d]: name and tenant_id are required", i)
		}
	}
	return &cfg, nil
}

// Apply installs the fixtures. It can be re-run: keys that already exist,
// BGPVPNs with an existing (tenant, name) and existing associations are
// left alone.
func Apply(ctx context.Context, logger zerolog.Logger, svcs *core.Services, cfg *Config) error {
	for _, k := range cfg.APIKeys {
		key, err := svcs.APIKey.CreateWithRawKey(ctx, k.Name, k.Key, k.TenantID, k.Admin)
		if errors.Is(err, core.ErrConflict) {
			logger.Info().Str("name", k.Name).Msg("api key already present")
			continue
		}
		if err != nil {
			return fmt.Errorf("seed api key %q: %w", k.Name, err)
		}
		logger.Info().Str("id", key.ID).Str("name", k.Name).Str("tenant_id", k.TenantID).Msg("api key created")
	}

	for _, b := range cfg.BGPVPNs {
		vpn, err := ensureBGPVPN(ctx, logger, svcs.BGPVPN, b)
		if err != nil {
			return err
		}
		for _, networkID := range b.Networks {
			_, err := svcs.Association.AssociateNetwork(ctx, vpn.ID, networkID)
			if err != nil && !errors.Is(err, core.ErrConflict) {
				return fmt.Errorf("seed bgpvpn %q network %s: %w", b.Name, networkID, err)
			}
		}
		for _, routerID := range b.Routers {
			_, err := svcs.Association.AssociateRouter(ctx, vpn.ID, routerID)
			if err != nil && !errors.Is(err, core.ErrConflict) {
				return fmt.Errorf("seed bgpvpn %q router %s: %w", b.Name, routerID, err)
			}
		}
	}
	return nil
}

func ensureBGPVPN(ctx context.Context, logger zerolog.Logger, store *core.BGPVPNService, b BGPVPN) (*model.BGPVPN, error) {
	existing, _, err := store.List(ctx, model.BGPVPNFilter{TenantID: b.TenantID, Name: b.Name, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("look up bgpvpn %q: %w", b.Name, err)
	}
	if len(existing) > 0 {
		logger.Info().Str("id", existing[0].ID).Str("name", b.Name).Msg("bgpvpn already present")
		return &existing[0], nil
	}

	vpn := &model.BGPVPN{
		TenantID:            b.TenantID,
		Name:                b.Name,
		Type:                b.Type,
		RouteTargets:        b.RouteTargets,
		ImportTargets:       b.ImportTargets,
		ExportTargets:       b.ExportTargets,
		RouteDistinguishers: b.RouteDistinguishers,
		VNI:                 b.VNI,
		LocalPref:           b.LocalPref,
	}
	if err := store.Create(ctx, vpn); err != nil {
		return nil, fmt.Errorf("seed bgpvpn %q: %w", b.Name, err)
	}
	logger.Info().Str("id", vpn.ID).Str("name", b.Name).Str("tenant_id", b.TenantID).Msg("bgpvpn created")
	return vpn, nil
}
