package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parley-lang/parley/internal/intent"
	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/scenario"
	"github.com/parley-lang/parley/internal/server/auth"
	"github.com/parley-lang/parley/internal/server/ratelimit"
	"github.com/parley-lang/parley/internal/services"
)

// Server is the HTTP chat server. It owns one interpreter per enabled
// scenario; each interpreter multiplexes any number of sessions over
// its shared script.
type Server struct {
	config    *Config
	logger    *zap.Logger
	scenarios *scenario.Manager
	users     *auth.UserStore
	tokens    *auth.TokenService
	limiter   ratelimit.Limiter

	httpServer *http.Server
	listener   net.Listener

	mu      sync.Mutex
	engines map[string]*interpreter.Interpreter

	// sessionScenario maps live session ids to their scenario so chat
	// and delete requests can find the owning engine.
	sessionScenario sync.Map
}

// New assembles a server from config: loads scenarios, opens the user
// database, and picks the rate limiter backend.
func New(config *Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scenarios := scenario.NewManager(config.ScenarioDir, logger)
	if err := scenarios.Load(); err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	users, err := auth.OpenUserStore(config.DatabaseDriver, config.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	var limiter ratelimit.Limiter
	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		limiter, err = ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
			Client: client,
			Limit:  config.RateLimit,
			Window: config.RateWindow,
			Prefix: "parley:ratelimit:",
		})
		if err != nil {
			users.Close()
			return nil, err
		}
		logger.Info("rate limiting via redis", zap.String("addr", config.RedisAddr))
	} else {
		limiter = ratelimit.NewTokenBucketWithConfig(ratelimit.TokenBucketConfig{
			Capacity:        config.RateLimit,
			Window:          config.RateWindow,
			CleanupInterval: 5 * config.RateWindow,
		})
	}

	s := &Server{
		config:    config,
		logger:    logger,
		scenarios: scenarios,
		users:     users,
		tokens:    auth.NewTokenService(config.JWTSecret, config.TokenTTL),
		limiter:   limiter,
		engines:   make(map[string]*interpreter.Interpreter),
	}

	s.httpServer = &http.Server{
		Addr:         config.Addr(),
		Handler:      s.routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s, nil
}

// engine returns the interpreter for a scenario, creating it on first
// use. Creation parses the script, so a broken .dsl file surfaces here.
func (s *Server) engine(scenarioID string) (*interpreter.Interpreter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if engine, ok := s.engines[scenarioID]; ok {
		return engine, nil
	}

	script, err := s.scenarios.CompiledScript(scenarioID)
	if err != nil {
		return nil, err
	}

	var recognizer intent.Recognizer
	if s.config.RemoteAPIKey != "" {
		recognizer = intent.NewRemote(intent.RemoteConfig{
			APIKey: s.config.RemoteAPIKey,
			Model:  s.config.RemoteModel,
		})
	} else {
		recognizer = intent.NewLocalForScenario(scenarioID)
	}

	engine := interpreter.New(script, recognizer, services.NewDefaultRegistry())
	s.engines[scenarioID] = engine
	return engine, nil
}

// engineForSession finds the engine owning a session id.
func (s *Server) engineForSession(sessionID string) (*interpreter.Interpreter, string, bool) {
	value, ok := s.sessionScenario.Load(sessionID)
	if !ok {
		return nil, "", false
	}
	scenarioID := value.(string)

	engine, err := s.engine(scenarioID)
	if err != nil {
		return nil, "", false
	}
	return engine, scenarioID, true
}

// Start listens and serves until Shutdown or a listener error. The
// listener is kept so Addr reports the bound address even with :0.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.logger.Info("chat server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("scenarios", len(s.scenarios.Enabled())),
	)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the user database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.users.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Addr returns the server's bound network address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr()
}
