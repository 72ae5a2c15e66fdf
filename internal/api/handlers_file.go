package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/strategy"
)

func (s *Server) handleChunkFile(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), decodeStatus(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	req, err := fileRequest(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := parser.ForFile(filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("file parse failed", "filename", filename, "error", err)
		jsonError(w, "failed to parse file: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	req.InputType = string(doc.InputType)
	req.InputStr = doc.Body
	if req.Strategy == "" {
		req.Strategy = string(strategy.DefaultFor(doc.InputType))
	}
	title := r.FormValue("title")
	if title == "" {
		title = doc.Title
	}
	if title != "" {
		if req.AdditionalMetadata == nil {
			req.AdditionalMetadata = map[string]any{}
		}
		req.AdditionalMetadata[doctree.KeyDocumentTitle] = title
	}

	chunks, err := s.chunk(req)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":   filename,
		"strategy":   strings.ToLower(req.Strategy),
		"input_type": req.InputType,
		"chunks":     chunks,
	})
}

// fileRequest reads the chunking parameters sent as form fields.
func fileRequest(r *http.Request) (strategy.Request, error) {
	req := strategy.Request{
		Strategy:           r.FormValue("strategy"),
		CodeBehavior:       r.FormValue("code_behavior"),
		ParagraphDelimiter: r.FormValue("paragraph_delimiter"),
	}

	var err error
	if req.ChunkMinWords, err = formInt(r, "chunk_min_words"); err != nil {
		return req, err
	}
	if req.ChunkOverlapWords, err = formInt(r, "chunk_overlap_words"); err != nil {
		return req, err
	}
	if v := r.FormValue("metadata"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.AdditionalMetadata); err != nil {
			return req, fmt.Errorf("metadata must be a JSON object: %w", err)
		}
	}
	return req, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
