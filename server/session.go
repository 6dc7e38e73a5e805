package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Session is one hosted world plus the clients watching it
type Session struct {
	ID         string
	Name       string
	World      *World
	Persistent bool // kept alive when the last human leaves

	mu             sync.RWMutex
	clients        map[string]Broadcaster
	bots           []string
	motionTicks    uint64
	broadcastEvery int

	settings  Settings
	sched     *Scheduler
	persister *Persister
	analytics *Analytics
	log       zerolog.Logger
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	settings  Settings
	sched     *Scheduler
	persister *Persister
	analytics *Analytics
	metrics   *Metrics
	log       zerolog.Logger
}

// NewSessionManager creates a manager whose sessions run on sched. persister
// and analytics may be nil.
func NewSessionManager(settings Settings, sched *Scheduler, persister *Persister, analytics *Analytics, metrics *Metrics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		settings:  settings,
		sched:     sched,
		persister: persister,
		analytics: analytics,
		metrics:   metrics,
		log:       Logger.With().Str("component", "sessions").Logger(),
	}
}

// CreateSession builds a world from src, seats the bots and starts its jobs.
// Fails with ErrResourceExhausted when the session limit is reached.
func (sm *SessionManager) CreateSession(name string, src TerrainSource) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.settings.MaxSessions > 0 && len(sm.sessions) >= sm.settings.MaxSessions {
		return nil, fmt.Errorf("session limit %d: %w", sm.settings.MaxSessions, ErrResourceExhausted)
	}
	seed := sm.settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	terrain, err := src.Generate(seed)
	if err != nil {
		return nil, fmt.Errorf("generate terrain: %w", err)
	}

	id := GenerateUUID()
	sess := &Session{
		ID:             id,
		Name:           name,
		World:          NewWorld(id, name, terrain, sm.settings.Match, seed, sm.settings.RegionSize),
		clients:        make(map[string]Broadcaster),
		broadcastEvery: sm.settings.BroadcastEvery,
		settings:       sm.settings,
		sched:          sm.sched,
		persister:      sm.persister,
		analytics:      sm.analytics,
		log:            Logger.With().Str("session", id).Logger(),
	}
	if err := sess.addBots(); err != nil {
		sess.releaseBots()
		return nil, err
	}
	sm.sessions[id] = sess
	sess.Start()
	sm.metrics.SessionOpened()
	sm.log.Info().Str("session", id).Str("name", name).Int64("seed", seed).Msg("session created")
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes a player from a session. A non-persistent session
// with no humans left is stopped.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Leave(playerID)
	if !sess.Persistent && sess.HumanCount() == 0 {
		sm.StopSession(sessionID)
	}
}

// StopSession cancels a session's jobs and forgets it
func (sm *SessionManager) StopSession(id string) {
	sm.mu.Lock()
	sess := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if sess == nil {
		return
	}
	sess.Stop()
	sm.metrics.SessionClosed()
	sm.log.Info().Str("session", id).Msg("session stopped")
}

// StopAll stops every session
func (sm *SessionManager) StopAll() {
	sm.mu.RLock()
	ids := sortedKeys(sm.sessions)
	sm.mu.RUnlock()
	for _, id := range ids {
		sm.StopSession(id)
	}
}

// ListSessions returns info about all active sessions, by name
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, sess.Info())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Start registers the world's recurring jobs. Starting twice is a no-op.
func (s *Session) Start() {
	st := s.settings
	s.sched.Every(s.ID, JobMotion, st.MotionInterval, s.motionTick)
	s.sched.Every(s.ID, JobProjectiles, st.ProjectileEvery, s.projectileTick)
	s.sched.Every(s.ID, JobMines, st.MineInterval, s.mineTick)
	s.sched.Every(s.ID, JobAI, st.AIInterval, s.aiTick)
	s.sched.Every(s.ID, JobCleanup, st.CleanupInterval, s.cleanupTick)
	s.sched.Every(s.ID, JobPersist, st.PersistInterval, s.persistTick)
}

// Stop cancels every job of the world, including a pending reset
func (s *Session) Stop() {
	s.sched.StopWorld(s.ID)
	s.releaseBots()
}

// Info summarises the session for the lobby list
func (s *Session) Info() SessionInfo {
	info := SessionInfo{ID: s.ID, Name: s.Name, Players: s.HumanCount()}
	s.World.View(func() {
		info.Phase = s.World.Phase.String()
	})
	return info
}

// HumanCount returns the number of non-bot players
func (s *Session) HumanCount() int {
	n := 0
	s.World.View(func() {
		for _, p := range s.World.Players {
			if !p.AI {
				n++
			}
		}
	})
	return n
}

// Join seats a human player and subscribes c to state frames
func (s *Session) Join(playerID, name string, class TankClass, c Broadcaster) (WelcomeMsg, error) {
	var welcome WelcomeMsg
	err := s.World.Transact(time.Now(), 0, func(tc *TickContext) error {
		w := tc.World
		if w.Config.MaxTanks > 0 && len(w.Players) >= w.Config.MaxTanks {
			return fmt.Errorf("world %s full: %w", w.ID, ErrResourceExhausted)
		}
		p, err := w.AddPlayer(tc, playerID, name, false, 0, class)
		if err != nil {
			return err
		}
		t := w.Tanks[p.TankID]
		welcome = WelcomeMsg{PlayerID: p.ID, TankID: t.ID, Alliance: p.Alliance, Code: t.Code}
		return nil
	})
	if err != nil {
		return welcome, err
	}
	if c != nil {
		s.mu.Lock()
		s.clients[playerID] = c
		s.mu.Unlock()
	}
	s.log.Info().Str("player", playerID).Str("name", name).Int("alliance", welcome.Alliance).Msg("player joined")
	return welcome, nil
}

// Leave removes a player and their subscription
func (s *Session) Leave(playerID string) {
	s.mu.Lock()
	delete(s.clients, playerID)
	s.mu.Unlock()
	err := s.World.Transact(time.Now(), 0, func(tc *TickContext) error {
		tc.World.RemovePlayer(playerID)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("player", playerID).Msg("leave")
		return
	}
	s.log.Info().Str("player", playerID).Msg("player left")
}

// Command applies a player command to the world
func (s *Session) Command(playerID string, cmd Command) error {
	return s.World.Apply(playerID, cmd)
}

// addBots seats BotsPerTeam bots in each alliance
func (s *Session) addBots() error {
	per := s.World.Config.BotsPerTeam
	if per <= 0 {
		return nil
	}
	return s.World.Transact(time.Now(), 0, func(tc *TickContext) error {
		for i := 0; i < per; i++ {
			for alliance := 1; alliance <= 2; alliance++ {
				name, err := botNamePool.Acquire()
				if err != nil {
					s.log.Warn().Err(err).Str("name", name).Msg("bot name pool empty")
				} else {
					s.bots = append(s.bots, name)
				}
				class := TankClass(i % 3)
				if _, err := tc.World.AddPlayer(tc, NextEntityID("b"), name, true, alliance, class); err != nil {
					return fmt.Errorf("add bot %s: %w", name, err)
				}
			}
		}
		return nil
	})
}

func (s *Session) releaseBots() {
	for _, n := range s.bots {
		botNamePool.Release(n)
	}
	s.bots = nil
}
