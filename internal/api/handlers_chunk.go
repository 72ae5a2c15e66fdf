package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/stats"
	"github.com/dgallion1/docchunk/internal/strategy"
	"golang.org/x/sync/errgroup"
)

// chunkRequest accepts the historical "paragraph_delimeter" spelling
// alongside the request fields.
type chunkRequest struct {
	strategy.Request
	ParagraphDelimeter string `json:"paragraph_delimeter,omitempty"`
}

func (c chunkRequest) normalize() strategy.Request {
	req := c.Request
	if req.ParagraphDelimiter == "" {
		req.ParagraphDelimiter = c.ParagraphDelimeter
	}
	return req
}

type batchRequest struct {
	Requests []chunkRequest `json:"requests"`
}

type batchResult struct {
	Index  int             `json:"index"`
	Chunks []doctree.Chunk `json:"chunks,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var body chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), decodeStatus(err))
		return
	}

	chunks, err := s.chunk(body.normalize())
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunks)
}

func (s *Server) handleBatchChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes*int64(s.cfg.MaxBatchSize))

	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), decodeStatus(err))
		return
	}
	if len(body.Requests) == 0 {
		jsonError(w, "at least one request is required", http.StatusBadRequest)
		return
	}
	if len(body.Requests) > s.cfg.MaxBatchSize {
		jsonError(w, fmt.Sprintf("batch exceeds max size (%d requests)", s.cfg.MaxBatchSize), http.StatusBadRequest)
		return
	}

	results := make([]batchResult, len(body.Requests))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.MaxConcurrentChunk)
	for i, req := range body.Requests {
		i, req := i, req
		g.Go(func() error {
			results[i].Index = i
			if err := ctx.Err(); err != nil {
				return err
			}
			chunks, err := s.chunk(req.normalize())
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Chunks = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("batch abandoned", "error", err, "requests", len(body.Requests))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

// chunk runs one request through the cache, the strategy façade and the
// stats recorder.
func (s *Server) chunk(req strategy.Request) ([]doctree.Chunk, error) {
	if req.ParagraphDelimiter == "" {
		req.ParagraphDelimiter = s.cfg.ParagraphDelimiter
	}
	name := strings.ToLower(req.Strategy)
	if len(req.InputUnits) > 0 {
		name = "units"
	}
	log := s.log.With("strategy", name, "input_type", strings.ToLower(req.InputType))

	key, err := req.Key()
	if err != nil {
		return nil, &chunkerr.InputError{Message: "unencodable request", Err: err}
	}
	if s.cache != nil {
		if chunks, ok := s.cache.Get(key); ok {
			log.Debug("cache hit", "chunks", len(chunks))
			s.stats.Record(stats.Sample{Strategy: name, Chunks: len(chunks)})
			return chunks, nil
		}
	}

	start := time.Now()
	chunks, err := strategy.Run(req, s.an)
	elapsed := time.Since(start)
	s.stats.Record(stats.Sample{Strategy: name, Duration: elapsed, Chunks: len(chunks), Failed: err != nil})
	if err != nil {
		if chunkerr.IsClientError(err) {
			log.Info("chunking rejected", "error", err)
		} else {
			log.Error("chunking failed", "error", err)
		}
		return nil, err
	}

	log.Debug("chunked",
		"chunks", len(chunks),
		"input_bytes", len(req.InputStr),
		"duration_ms", elapsed.Milliseconds(),
	)
	if s.cache != nil {
		s.cache.Add(key, chunks)
	}
	return chunks, nil
}

func errorStatus(err error) int {
	if chunkerr.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
