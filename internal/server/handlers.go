package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-lang/parley/internal/compiler/parser"
	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/scenario"
	"github.com/parley-lang/parley/internal/server/auth"
)

// sessionResponse is the shape /api/start and /api/chat reply with.
type sessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	interpreter.Output
	SessionRestarted bool `json:"session_restarted,omitempty"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    *auth.User `json:"user"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenarios lists the enabled scenario catalog.
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"scenarios": s.scenarios.Enabled(),
	})
}

// handleScriptSource returns the raw .dsl source of one scenario.
func (s *Server) handleScriptSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	source, err := s.scenarios.ScriptSource(id)
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			respondError(w, http.StatusNotFound, "Scenario not found")
		} else {
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": source,
	})
}

// handleParse compiles posted source and reports the script structure,
// a debugging aid for script authors.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	script, parseErrors := parser.Compile(req.Source)

	type branchInfo struct {
		Intent string `json:"intent"`
		Target string `json:"target"`
	}
	type stepInfo struct {
		Name           string       `json:"name"`
		Statements     int          `json:"statements"`
		Branches       []branchInfo `json:"branches"`
		SilenceHandler string       `json:"silence_handler,omitempty"`
		DefaultHandler string       `json:"default_handler,omitempty"`
		IsExit         bool         `json:"is_exit"`
	}

	steps := make([]stepInfo, 0, len(script.Order))
	for _, step := range script.StepsInOrder() {
		branches := make([]branchInfo, 0, len(step.Branches))
		for _, b := range step.Branches {
			branches = append(branches, branchInfo{Intent: b.Intent, Target: b.Target})
		}
		steps = append(steps, stepInfo{
			Name:           step.Name,
			Statements:     len(step.Statements),
			Branches:       branches,
			SilenceHandler: step.SilenceTarget,
			DefaultHandler: step.DefaultTarget,
			IsExit:         step.IsExit,
		})
	}

	errs := make([]string, 0, len(parseErrors))
	for _, e := range parseErrors {
		errs = append(errs, e.Error())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"entry_step": script.EntryStep,
		"steps":      steps,
		"errors":     errs,
	})
}

// handleRegister creates an account and logs it straight in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(w, http.StatusConflict, "Username already exists")
			return
		}
		s.logger.Error("failed to create user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	respondJSON(w, http.StatusCreated, &authResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// handleLogin checks credentials and issues a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	respondJSON(w, http.StatusOK, &authResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// handleStart creates a session for a scenario and runs the script to
// its first suspension.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario  string                 `json:"scenario"`
		Variables map[string]interface{} `json:"variables,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Scenario == "" {
		respondError(w, http.StatusBadRequest, "Scenario is required")
		return
	}

	engine, err := s.engine(req.Scenario)
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			respondError(w, http.StatusNotFound, "Scenario not found")
			return
		}
		s.logger.Error("failed to load scenario",
			zap.String("scenario", req.Scenario), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sessionID := uuid.NewString()
	engine.CreateSession(sessionID, req.Variables)
	s.sessionScenario.Store(sessionID, req.Scenario)

	output := engine.Start(r.Context(), sessionID)

	s.logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("scenario", req.Scenario),
		zap.String("user_id", auth.UserID(r.Context())),
	)

	respondJSON(w, http.StatusOK, &sessionResponse{
		Success:   true,
		SessionID: sessionID,
		Output:    output,
	})
}

// handleChat feeds one utterance into a session. If the session is gone
// and the request names its scenario, a fresh session is started under
// the same id and flagged session_restarted.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
		Scenario  string `json:"scenario,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	engine, _, ok := s.engineForSession(req.SessionID)
	if !ok {
		if req.Scenario == "" {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}

		engine, err := s.engine(req.Scenario)
		if err != nil {
			if errors.Is(err, scenario.ErrScenarioNotFound) {
				respondError(w, http.StatusNotFound, "Scenario not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		engine.CreateSession(req.SessionID, nil)
		s.sessionScenario.Store(req.SessionID, req.Scenario)
		output := engine.Start(r.Context(), req.SessionID)

		respondJSON(w, http.StatusOK, &sessionResponse{
			Success:          true,
			Output:           output,
			SessionRestarted: true,
		})
		return
	}

	output := engine.ProcessInput(r.Context(), req.SessionID, req.Message)

	respondJSON(w, http.StatusOK, &sessionResponse{
		Success: true,
		Output:  output,
	})
}

// handleEndSession drops a session. Ending an unknown session succeeds;
// the outcome is the same.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if engine, _, ok := s.engineForSession(id); ok {
		engine.RemoveSession(id)
	}
	s.sessionScenario.Delete(id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session ended",
	})
}
