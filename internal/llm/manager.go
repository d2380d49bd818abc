package llm

import (
	"context"
	"fmt"
	"io"
	"sync"

	"betterresume/internal/config"
	"betterresume/internal/logging"
)

// Manager manages the LLM provider lifecycle and wraps it in a gateway
type Manager struct {
	config   *config.Config
	factory  *LLMFactory
	provider Provider
	gateway  *Gateway
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewLLMFactory(cfg),
	}
}

// Start initializes the LLM manager and creates the provider
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting LLM manager", map[string]interface{}{
		"provider": m.config.LLM.Provider,
	})

	provider, err := m.factory.CreateProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	m.provider = provider
	m.gateway = NewGateway(m.config, provider)

	healthCtx, cancel := context.WithTimeout(ctx, m.config.LLM.Timeout)
	defer cancel()

	if err := m.provider.IsHealthy(healthCtx); err != nil {
		logger.Warn("LLM provider health check failed - generation will be unavailable", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
			"error":    err.Error(),
		})
		m.healthy = false
		// Allow the server to start without a reachable model
	} else {
		m.healthy = true
		logger.Info("LLM manager started successfully", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
		})
	}

	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logging.GetGlobalLogger().Info("Stopping LLM manager")

	if closer, ok := m.provider.(io.Closer); ok {
		closer.Close()
	}

	m.provider = nil
	m.gateway = nil
	m.healthy = false
	return nil
}

// Gateway returns the rate-limited gateway around the provider
func (m *Manager) Gateway() *Gateway {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gateway
}

// IsHealthy checks if the LLM manager and provider are healthy
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}

// CheckHealth performs a health check on the LLM provider
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("LLM provider not available")
	}

	err := provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = (err == nil)
	m.mu.Unlock()

	return err
}
