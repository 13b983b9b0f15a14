package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"whatsreply/internal/config"
	"whatsreply/internal/llm"
	"whatsreply/internal/ratelimit"
	"whatsreply/internal/types"
)

const maxBodyBytes = 64 << 10

// Generator produces reply suggestions; *llm.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req types.SuggestionRequest) ([]types.Suggestion, error)
}

type Server struct {
	router    *chi.Mux
	cfg       config.Config
	generator Generator
	limiter   ratelimit.Limiter
	rdb       *redis.Client
}

func NewServer(cfg config.Config) (*Server, error) {
	ocfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		ocfg.BaseURL = cfg.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(ocfg)
	gen, err := llm.LoadGenerator(cfg.PromptFile, client, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt spec: %w", err)
	}

	var limiter ratelimit.Limiter
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err = ratelimit.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Println("rate limiting via redis")
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	} else {
		log.Println("warning: REDIS_URL not provided, rate limiting per process only")
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	}

	s := newServer(cfg, gen, limiter)
	s.rdb = rdb
	return s, nil
}

func newServer(cfg config.Config, gen Generator, limiter ratelimit.Limiter) *Server {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	s := &Server{
		router:    r,
		cfg:       cfg,
		generator: gen,
		limiter:   limiter,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/api/suggest-messages", s.handleSuggest)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the redis connection, if any.
func (s *Server) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "WhatsApp AI Assistant API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req types.SuggestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch {
	case strings.TrimSpace(req.ReceivedMessage) == "":
		s.writeError(w, http.StatusUnprocessableEntity, "received_message is required")
		return
	case strings.TrimSpace(req.RelationshipType) == "":
		s.writeError(w, http.StatusUnprocessableEntity, "relationship_type is required")
		return
	case strings.TrimSpace(req.DesiredOutcome) == "":
		s.writeError(w, http.StatusUnprocessableEntity, "desired_outcome is required")
		return
	}

	ok, err := s.limiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		log.Printf("[ratelimit] id=%s check failed, allowing: %v", RequestIDFrom(r.Context()), err)
		ok = true
	}
	if !ok {
		s.writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	suggestions, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		log.Printf("[suggest] id=%s generation failed: %v", RequestIDFrom(r.Context()), err)
		if errors.Is(err, llm.ErrParse) {
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse AI response: %v", err))
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating suggestions: %v", err))
		return
	}
	if suggestions == nil {
		suggestions = []types.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, types.SuggestionResponse{Suggestions: suggestions})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, detail string) {
	s.writeJSON(w, code, types.ErrorResponse{Detail: detail})
}
