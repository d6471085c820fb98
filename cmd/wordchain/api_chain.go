package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/CTAG07/wordchain/pkg/store"
)

// ChainAPI holds the chain served over HTTP. The chain is single-writer, so
// ingestion takes the write lock and every read path takes the read lock.
type ChainAPI struct {
	mu            sync.RWMutex
	chain         *markov.Chain
	store         *store.Store // nil when no database is configured
	name          string
	defaultLength int
	maxLength     int
	maxBodyBytes  int64
	logger        *slog.Logger
}

// NewChainAPI creates a new instance of the ChainAPI. st may be nil.
func NewChainAPI(chain *markov.Chain, st *store.Store, name string, config *Config, logger *slog.Logger) *ChainAPI {
	return &ChainAPI{
		chain:         chain,
		store:         st,
		name:          name,
		defaultLength: config.Chain.Length,
		maxLength:     config.Server.MaxGenerateLength,
		maxBodyBytes:  config.Server.MaxBodyBytes,
		logger:        logger,
	}
}

// RegisterRoutes sets up the routing for all /api/chain endpoints.
func (c *ChainAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/chain/ingest", c.handleIngest)
	mux.HandleFunc("/api/chain/generate", c.handleGenerate)
	mux.HandleFunc("/api/chain/stats", c.handleStats)
	mux.HandleFunc("/api/chain/export", c.handleExport)
	mux.HandleFunc("/api/chain/save", c.handleSave)
}

type GenerateRequest struct {
	Length int    `json:"length"`
	Start  string `json:"start"`
}

type GenerateResponse struct {
	Text  string `json:"text"`
	Words int    `json:"words"`
}

type IngestResponse struct {
	Stats   markov.Stats `json:"stats"`
	Warning string       `json:"warning,omitempty"`
}

type StatsResponse struct {
	Stats          markov.Stats        `json:"stats"`
	TopTransitions []markov.Transition `json:"top_transitions"`
}

// handleIngest adds the request body, as plain text, to the chain.
func (c *ChainAPI) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, c.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := func() (markov.Stats, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := c.chain.IngestReader(http.MaxBytesReader(w, r.Body, c.maxBodyBytes))
		return c.chain.Stats(), err
	}()

	resp := IngestResponse{Stats: stats}
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
	case errors.Is(err, markov.ErrInputTooShort):
		resp.Warning = err.Error()
	case errors.As(err, &maxBytesErr):
		respondWithError(w, c.logger, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	case errors.Is(err, markov.ErrSourceUnavailable):
		respondWithError(w, c.logger, http.StatusBadRequest, fmt.Sprintf("Unreadable request body: %v", err))
		return
	default:
		c.logger.Error("Failed to ingest text", "error", err)
		respondWithError(w, c.logger, http.StatusInternalServerError, fmt.Sprintf("Ingestion failed: %v", err))
		return
	}
	respondWithJSON(w, c.logger, http.StatusOK, resp)
}

// handleGenerate samples text from the chain.
func (c *ChainAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, c.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req := GenerateRequest{Length: c.defaultLength}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, c.maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, c.logger, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	if req.Length > c.maxLength {
		respondWithError(w, c.logger, http.StatusBadRequest, fmt.Sprintf("Length must not exceed %d", c.maxLength))
		return
	}

	words, err := func() ([]string, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.chain.GenerateWords(r.Context(), markov.WithLength(req.Length), markov.WithSeed(parseStart(req.Start)...))
	}()

	switch {
	case errors.Is(err, markov.ErrModelNotBuilt):
		respondWithError(w, c.logger, http.StatusConflict, markov.ModelNotBuiltMessage)
	case errors.Is(err, markov.ErrInvalidLength):
		respondWithError(w, c.logger, http.StatusBadRequest, "Length must be a positive integer")
	case err != nil:
		c.logger.Error("Failed to generate text", "error", err)
		respondWithError(w, c.logger, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
	default:
		respondWithJSON(w, c.logger, http.StatusOK, GenerateResponse{Text: strings.Join(words, " "), Words: len(words)})
	}
}

// handleStats reports chain statistics and the most frequent transitions.
// The number of transitions is set with ?top=n (default 10).
func (c *ChainAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, c.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, c.logger, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}

	resp := func() StatsResponse {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return StatsResponse{Stats: c.chain.Stats(), TopTransitions: c.chain.TopTransitions(top)}
	}()

	if resp.TopTransitions == nil {
		resp.TopTransitions = []markov.Transition{}
	}
	respondWithJSON(w, c.logger, http.StatusOK, resp)
}

// handleExport streams the chain as JSON.
func (c *ChainAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, c.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", c.name))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.chain.Export(w); err != nil {
		c.logger.Error("Failed to export chain", "error", err)
	}
}

// handleSave writes the chain to the configured database.
func (c *ChainAPI) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, c.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if c.store == nil {
		respondWithError(w, c.logger, http.StatusNotImplemented, "No database configured")
		return
	}

	err := func() error {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.store.Save(r.Context(), c.name, c.chain)
	}()

	if err != nil {
		c.logger.Error("Failed to save chain", "name", c.name, "error", err)
		respondWithError(w, c.logger, http.StatusInternalServerError, fmt.Sprintf("Save failed: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
