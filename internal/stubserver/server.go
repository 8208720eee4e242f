// Package stubserver is an in-memory stand-in for the hosted contacts API.
// It implements the same surface the client talks to in production, so the
// CLI can be developed offline and the client tested against a real HTTP
// boundary. Nothing survives a restart.
package stubserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"phonebook/internal/model"
)

type account struct {
	id    string
	name  string
	email string
	hash  []byte
}

// Server holds all state behind one mutex. The dataset is a handful of
// users and their contact lists; contention is not a concern.
type Server struct {
	log      *zap.Logger
	jwtKey   []byte
	tokenTTL time.Duration

	mu           sync.Mutex
	usersByEmail map[string]*account
	usersByID    map[string]*account
	contacts     map[string][]model.Contact // by user id, insertion order
	sessions     map[string]string          // live token -> user id
}

// New constructs an empty stub server signing tokens with jwtKey.
func New(jwtKey []byte, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:          log,
		jwtKey:       jwtKey,
		tokenTTL:     time.Hour,
		usersByEmail: make(map[string]*account),
		usersByID:    make(map[string]*account),
		contacts:     make(map[string][]model.Contact),
		sessions:     make(map[string]string),
	}
}

// Handler returns the routed HTTP surface of the stub.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log))

	r.Post("/users/signup", s.handleSignup)
	r.Post("/users/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.withAuth)
		r.Post("/users/logout", s.handleLogout)
		r.Get("/users/current", s.handleCurrent)
		r.Get("/contacts", s.handleListContacts)
		r.Post("/contacts", s.handleAddContact)
		r.Delete("/contacts/{id}", s.handleDeleteContact)
	})

	return r
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 7 {
		writeMessage(w, http.StatusBadRequest, "name, email and a password of at least 7 characters are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	id := newID()

	s.mu.Lock()
	if _, exists := s.usersByEmail[req.Email]; exists {
		s.mu.Unlock()
		writeMessage(w, http.StatusConflict, "Email in use")
		return
	}
	acc := &account{id: id, name: req.Name, email: req.Email, hash: hash}
	s.usersByEmail[acc.email] = acc
	s.usersByID[acc.id] = acc
	s.mu.Unlock()

	token, err := s.issueToken(acc)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.log.Info("user registered", zap.String("email", acc.email))
	writeJSON(w, http.StatusCreated, model.AuthPayload{
		User:  model.Identity{Name: acc.name, Email: acc.email},
		Token: token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	acc := s.usersByEmail[req.Email]
	s.mu.Unlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Email or password is wrong")
		return
	}

	token, err := s.issueToken(acc)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.log.Info("user logged in", zap.String("email", acc.email))
	writeJSON(w, http.StatusOK, model.AuthPayload{
		User:  model.Identity{Name: acc.name, Email: acc.email},
		Token: token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	acc := s.accountFor(r)
	if acc == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	writeJSON(w, http.StatusOK, model.Identity{Name: acc.name, Email: acc.email})
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	s.mu.Lock()
	items := append([]model.Contact(nil), s.contacts[userID]...)
	s.mu.Unlock()
	if items == nil {
		items = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Number string `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Number == "" {
		writeMessage(w, http.StatusBadRequest, "name and number are required")
		return
	}

	contact := model.Contact{ID: newID(), Name: req.Name, Number: req.Number}
	userID := userIDFrom(r)
	s.mu.Lock()
	s.contacts[userID] = append(s.contacts[userID], contact)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, contact)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.contacts[userID]
	for i, it := range items {
		if it.ID == id {
			s.contacts[userID] = append(items[:i:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Contact not found")
}

// issueToken signs an HS256 JWT for the account and records it as a live
// session. Logout revokes the session entry, so a structurally valid JWT
// is not enough on its own.
func (s *Server) issueToken(acc *account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   acc.id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[signed] = acc.id
	s.mu.Unlock()
	return signed, nil
}

func (s *Server) accountFor(r *http.Request) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByID[userIDFrom(r)]
}

func newID() string {
	id, _ := uuid.NewV4()
	return id.String()
}
