package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/store"
	"github.com/askdb/askdb/internal/telegram"
)

// AgentManager owns the live Telegram relays, one per active agent backed by
// a telegram credential. Handlers call it when agents are created, toggled,
// or deleted; serve startup calls Resume for agents already active.
type AgentManager struct {
	store   *store.Store
	queries *QueryService
	log     *slog.Logger

	// botBaseURL overrides the Bot API host in tests.
	botBaseURL string

	mu     sync.Mutex
	relays map[int64]*telegram.Relay
}

// NewAgentManager creates a manager with no running relays.
func NewAgentManager(st *store.Store, queries *QueryService, log *slog.Logger) *AgentManager {
	return &AgentManager{
		store:   st,
		queries: queries,
		log:     log,
		relays:  make(map[int64]*telegram.Relay),
	}
}

// SetBotBaseURL redirects relay traffic to a stand-in Bot API server.
func (m *AgentManager) SetBotBaseURL(baseURL string) {
	m.botBaseURL = baseURL
}

// StartAgent launches a relay for an active agent. Agents backed by email
// credentials have no live loop and are ignored. Starting an agent that
// already runs is a no-op.
func (m *AgentManager) StartAgent(agent *model.Agent) error {
	if agent.Credential == nil || agent.Project == nil {
		return fmt.Errorf("agent %d is not hydrated", agent.ID)
	}
	if agent.Credential.Data.Kind() != model.CredentialTelegram {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.relays[agent.ID]; running {
		return nil
	}

	var opts []telegram.ClientOption
	if m.botBaseURL != "" {
		opts = append(opts, telegram.WithBaseURL(m.botBaseURL))
	}
	client := telegram.NewClient(agent.Credential.Data.BotToken, opts...)

	userID := agent.UserID
	project := agent.Project
	relay := telegram.NewRelay(client, agent.Credential.Data.ChatID,
		func(ctx context.Context, text string) (string, error) {
			return m.queries.Ask(ctx, userID, project, text)
		},
		m.log.With("agent_id", agent.ID, "agent_name", agent.Name))

	relay.Start()
	m.relays[agent.ID] = relay
	m.log.Info("agent relay started", "agent_id", agent.ID, "agent_name", agent.Name)
	return nil
}

// StopAgent tears down the relay for an agent if one is running.
func (m *AgentManager) StopAgent(agentID int64) {
	m.mu.Lock()
	relay, ok := m.relays[agentID]
	delete(m.relays, agentID)
	m.mu.Unlock()

	if ok {
		relay.Stop()
		m.log.Info("agent relay stopped", "agent_id", agentID)
	}
}

// Running reports whether a relay is live for the agent.
func (m *AgentManager) Running(agentID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.relays[agentID]
	return ok
}

// Resume starts relays for every agent marked active in the store. Called
// once at serve startup. A single broken agent logs and does not block the
// rest.
func (m *AgentManager) Resume(ctx context.Context) error {
	agents, err := m.store.ListActiveAgents(ctx)
	if err != nil {
		return fmt.Errorf("list active agents: %w", err)
	}
	for i := range agents {
		if err := m.StartAgent(&agents[i]); err != nil {
			m.log.Error("resume agent failed", "agent_id", agents[i].ID, "error", err)
		}
	}
	return nil
}

// StopAll tears down every running relay, used at shutdown.
func (m *AgentManager) StopAll() {
	m.mu.Lock()
	relays := m.relays
	m.relays = make(map[int64]*telegram.Relay)
	m.mu.Unlock()

	for id, relay := range relays {
		relay.Stop()
		m.log.Info("agent relay stopped", "agent_id", id)
	}
}
