package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/formatter"
	"github.com/mcncl/j2j/internal/logging"
	"github.com/mcncl/j2j/internal/models"
	"github.com/mcncl/j2j/internal/store"
	"github.com/mcncl/j2j/internal/tree"
)

type parseRequest struct {
	JSON string `json:"json" validate:"required"`
}

type documentResponse struct {
	DocumentID string           `json:"document_id"`
	ExpiresAt  time.Time        `json:"expires_at"`
	Tree       *models.TreeNode `json:"tree"`
}

type renderRequest struct {
	Template   string          `json:"template"`
	DocumentID string          `json:"document_id" validate:"required_without=Data"`
	Data       json.RawMessage `json:"data" validate:"required_without=DocumentID"`
}

// expressionRequest optionally carries the editor's template buffer and
// cursor. When Buffer is set the expression is inserted at Cursor, or
// appended when Cursor is absent.
type expressionRequest struct {
	Path   string  `json:"path" validate:"required"`
	Buffer *string `json:"buffer"`
	Cursor *int    `json:"cursor" validate:"omitempty,min=0"`
}

type expressionResponse struct {
	Expression string  `json:"expression"`
	Buffer     *string `json:"buffer,omitempty"`
	Cursor     *int    `json:"cursor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !s.decode(w, r, &req) {
		return
	}

	node, err := s.buildTree(req.JSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.UserFriendlyError(err))
		return
	}

	doc := store.NewDocument(req.JSON, s.cfg.Store.TTL)
	if err := s.store.Put(r.Context(), doc); err != nil {
		logging.FromContext(r.Context()).Error("storing document", "err", err)
		writeError(w, http.StatusInternalServerError, errors.UserFriendlyError(err))
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{DocumentID: doc.ID, ExpiresAt: doc.ExpiresAt, Tree: node})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !s.decode(w, r, &req) {
		return
	}

	source := string(req.Data)
	if req.DocumentID != "" {
		doc, ok := s.loadDocument(w, r, req.DocumentID)
		if !ok {
			return
		}
		source = doc.Source
	}

	parsed, err := s.parser.Parse(bytes.NewReader([]byte(source)))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.UserFriendlyError(err))
		return
	}

	// Render failures are results, not transport errors.
	writeJSON(w, http.StatusOK, s.renderer.Render(req.Template, parsed.Root))
}

func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	var req expressionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := tree.ParsePath(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := expressionResponse{Expression: formatter.PathToExpression(req.Path)}
	if req.Buffer != nil {
		cursor := -1
		if req.Cursor != nil {
			cursor = *req.Cursor
		}
		buffer, next := formatter.InsertAtCursor(*req.Buffer, cursor, resp.Expression)
		resp.Buffer, resp.Cursor = &buffer, &next
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	node, err := s.buildTree(doc.Source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.UserFriendlyError(err))
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{DocumentID: doc.ID, ExpiresAt: doc.ExpiresAt, Tree: node})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		writeError(w, http.StatusNotFound, errors.UserFriendlyError(errors.ErrDocumentNotFound))
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, errors.UserFriendlyError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) buildTree(source string) (*models.TreeNode, error) {
	parsed, err := s.parser.ParseString(source)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(parsed.Root)
}

// loadDocument fetches id from the store, writing a 404 or 500 and
// returning false on failure.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request, id string) (*store.Document, bool) {
	if !store.ValidID(id) {
		writeError(w, http.StatusNotFound, errors.UserFriendlyError(errors.ErrDocumentNotFound))
		return nil, false
	}
	doc, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.UserFriendlyError(errors.ErrDocumentNotFound))
		return nil, false
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("loading document", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, errors.UserFriendlyError(err))
		return nil, false
	}
	return doc, true
}

// decode reads a JSON body into v and validates it, writing a 400 and
// returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var msgs []string
	for _, e := range validationErrs {
		field := jsonFieldName(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "required_without":
			msgs = append(msgs, fmt.Sprintf("%s or %s is required", field, jsonFieldName(e.Param())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

var jsonFieldNames = map[string]string{
	"JSON":       "json",
	"Template":   "template",
	"DocumentID": "document_id",
	"Data":       "data",
	"Path":       "path",
	"Buffer":     "buffer",
	"Cursor":     "cursor",
}

func jsonFieldName(field string) string {
	if name, ok := jsonFieldNames[field]; ok {
		return name
	}
	return field
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
