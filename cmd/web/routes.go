package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/config"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/httputil"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/notify"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/service"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
	users "github.com/kitmedia/esports-platform-fc2025-sub000/internal/user"
)

func newRouter(cfg *config.Config, database *sqlx.DB) http.Handler {
	tournamentStore := store.NewTournamentStore(database)
	disputeStore := store.NewDisputeStore(database)
	userStore := store.NewUserStore(database)
	notifier := notify.NewSlogNotifier()

	tournamentService := service.NewTournamentService(database, tournamentStore, userStore)
	bracketService := service.NewBracketService(database, tournamentStore)
	matchService := service.NewMatchService(database, tournamentStore, notifier)
	disputeService := service.NewDisputeService(database, disputeStore, tournamentStore, matchService)
	assignmentService := service.NewAssignmentService(database, disputeStore, userStore, notifier)
	consensusService := service.NewConsensusService(database, disputeStore, matchService, notifier, cfg.ConsensusThreshold)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Role     string `json:"role"`
			Rating   int    `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		if req.Role == "" {
			req.Role = string(users.RolePlayer)
		}
		role := users.Role(req.Role)
		if !role.Valid() {
			httputil.BadRequest(w, "Unknown role "+req.Role, nil)
			return
		}
		user := users.User{
			ID:       uuid.New(),
			Username: req.Username,
			Role:     role,
			Status:   users.StatusActive,
			Rating:   req.Rating,
		}
		if err := userStore.CreateUser(r.Context(), &user); err != nil {
			httputil.InternalServerError(w, "Failed to create user", err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	})

	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, err := userStore.GetUser(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "User not found", nil)
				return
			}
			httputil.InternalServerError(w, "Failed to get user", err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OwnerID         uuid.UUID `json:"owner_id"`
			Name            string    `json:"name"`
			Format          string    `json:"format"`
			MinParticipants int       `json:"min_participants"`
			MaxParticipants int       `json:"max_participants"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		id, err := tournamentService.CreateTournament(r.Context(), req.OwnerID, req.Name, bracket.TournamentFormat(req.Format), req.MinParticipants, req.MaxParticipants)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, err := tournamentService.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	})

	r.Get("/tournaments/{id}/disputes", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		disputes, err := disputeService.GetDisputesForTournament(r.Context(), id)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, disputes)
	})

	r.Post("/tournaments/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		if err := tournamentService.Transition(r.Context(), id, bracket.TournamentStatus(req.Status)); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/tournaments/{id}/register", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		var req struct {
			UserID      uuid.UUID `json:"user_id"`
			DisplayName string    `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		participant, err := tournamentService.Register(r.Context(), id, req.UserID, req.DisplayName)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, participant)
	})

	r.Post("/tournaments/{id}/generate", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		var req struct {
			Method string `json:"method"`
			Seed   *int64 `json:"seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		source := time.Now().UnixNano()
		if req.Seed != nil {
			source = *req.Seed
		}
		rng := rand.New(rand.NewSource(source))
		if err := bracketService.Generate(r.Context(), id, service.SeedingMethod(req.Method), rng); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	r.Post("/tournaments/{id}/rounds", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		if err := bracketService.GenerateNextRound(r.Context(), id); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	r.Get("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, err := matchService.GetMatchData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	})

	r.Post("/matches/{id}/ready", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		if err := matchService.MarkReady(r.Context(), id); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/matches/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		if err := matchService.Start(r.Context(), id); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/matches/{id}/results", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		var req struct {
			ReporterID uuid.UUID `json:"reporter_id"`
			Score1     int       `json:"score_1"`
			Score2     int       `json:"score_2"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		result, err := matchService.SubmitResult(r.Context(), id, req.ReporterID, req.Score1, req.Score2)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})

	r.Post("/matches/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		if err := matchService.Cancel(r.Context(), id); err != nil {
			httputil.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/disputes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TournamentID uuid.UUID  `json:"tournament_id"`
			MatchID      *uuid.UUID `json:"match_id"`
			ReporterID   uuid.UUID  `json:"reporter_id"`
			Category     string     `json:"category"`
			Description  string     `json:"description"`
			Evidence     []string   `json:"evidence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		dispute, err := disputeService.SubmitDispute(r.Context(), req.TournamentID, req.MatchID, req.ReporterID, arbitration.Category(req.Category), req.Description, req.Evidence)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, dispute)
	})

	r.Get("/disputes/{id}", func(w http.ResponseWriter, r *http.Request) {
		dispute, err := disputeService.GetDispute(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dispute)
	})

	r.Post("/disputes/{id}/panel", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		panel, err := assignmentService.AssignPanel(r.Context(), id)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, panel)
	})

	r.Post("/disputes/{id}/votes", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		var req struct {
			ArbiterID  uuid.UUID `json:"arbiter_id"`
			Decision   string    `json:"decision"`
			Confidence float64   `json:"confidence"`
			Reasoning  string    `json:"reasoning"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid JSON body", err)
			return
		}
		outcome, err := consensusService.SubmitVote(r.Context(), id, req.ArbiterID, arbitration.Decision(req.Decision), req.Confidence, req.Reasoning)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	})

	r.Post("/disputes/{id}/consensus", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		outcome, err := consensusService.CheckConsensus(r.Context(), id)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	})

	return r
}

func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.BadRequest(w, "Invalid ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
