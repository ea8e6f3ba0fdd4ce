// Package crm routes follow-up actions to the configured CRM provider.
package crm

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
)

// Status tags carried on every dispatch result.
const (
	StatusSuccess     = "success"
	StatusDisabled    = "disabled"
	StatusConfigError = "configuration_error"
	StatusFailed      = "failed"
)

// Action tags understood by the built-in providers.
const (
	ActionCreateTask    = "create_task"
	ActionCreateCase    = "create_case"
	ActionUpdateContact = "update_contact"
)

// Result is the outcome of a dispatch attempt.
type Result struct {
	Action   string         `json:"action"`
	Provider string         `json:"provider,omitempty"`
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Provider is the capability interface every CRM backend implements.
type Provider interface {
	// Name returns the provider tag used in the crm_provider setting.
	Name() string
	// Perform executes one action against the backing CRM.
	Perform(ctx context.Context, action string, data map[string]any) (*Result, error)
}

// Registry manages the available CRM providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// SettingsSource yields the current runtime settings at dispatch time.
type SettingsSource func(ctx context.Context) (config.Settings, error)

// Router decides per call whether and where to forward CRM actions.
type Router struct {
	registry *Registry
	settings SettingsSource
}

// NewRouter creates a router over a provider registry. Settings are
// re-read on every dispatch so runtime toggles take effect immediately.
func NewRouter(registry *Registry, settings SettingsSource) *Router {
	return &Router{
		registry: registry,
		settings: settings,
	}
}

// Dispatch forwards the action to the configured provider. A disabled
// router or a misconfigured provider never returns an error; both
// conditions come back as tagged results the caller can report.
func (r *Router) Dispatch(ctx context.Context, action string, data map[string]any) (*Result, error) {
	settings, err := r.settings(ctx)
	if err != nil {
		return nil, err
	}

	if !settings.CRMEnabled {
		zap.L().Debug("crm disabled, skipping action", zap.String("action", action))
		return &Result{
			Action:  action,
			Status:  StatusDisabled,
			Message: "CRM integration is disabled",
		}, nil
	}

	provider := r.registry.Get(settings.CRMProvider)
	if provider == nil {
		zap.L().Warn("crm enabled but provider not configured",
			zap.String("action", action),
			zap.String("provider", settings.CRMProvider))
		return &Result{
			Action:   action,
			Provider: settings.CRMProvider,
			Status:   StatusConfigError,
			Message:  "no recognized CRM provider configured",
		}, nil
	}

	result, err := provider.Perform(ctx, action, data)
	if err != nil {
		zap.L().Error("crm action failed",
			zap.String("provider", provider.Name()),
			zap.String("action", action),
			zap.Error(err))
		return &Result{
			Action:   action,
			Provider: provider.Name(),
			Status:   StatusFailed,
			Message:  err.Error(),
		}, nil
	}

	result.Action = action
	result.Provider = provider.Name()
	if result.Status == "" {
		result.Status = StatusSuccess
	}
	return result, nil
}
