package backend

import (
	"net/http"
	"strings"
	"time"
)

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	var found *User
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Email) {
			found = u
			break
		}
	}
	var hash string
	if found != nil {
		hash = b.passwords[found.ID]
	}
	b.mu.Unlock()

	if found == nil || !checkPassword(req.Password, hash) {
		respondError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	b.respondWithToken(w, http.StatusOK, *found)

	b.mu.Lock()
	b.logLocked("info", "user logged in: "+found.Email, &found.ID)
	b.mu.Unlock()
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		respondError(w, "name and email are required", http.StatusBadRequest)
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Email) {
			b.mu.Unlock()
			respondError(w, "email already registered", http.StatusConflict)
			return
		}
	}
	id := b.insertUserLocked(req.Name, req.Email, hash, RoleCustomer)
	user := *b.users[id]
	b.logLocked("info", "user registered: "+user.Email, &id)
	b.mu.Unlock()

	b.respondWithToken(w, http.StatusCreated, user)
}

func (b *Backend) respondWithToken(w http.ResponseWriter, status int, u User) {
	token, _, err := b.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		respondError(w, "token issue failed", http.StatusInternalServerError)
		return
	}
	respondData(w, status, authResponse{Token: token, User: u})
}

func (b *Backend) getProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	b.mu.Lock()
	u, ok := b.users[claims.UserID]
	var out User
	if ok {
		out = *u
	}
	b.mu.Unlock()

	if !ok {
		respondError(w, "user not found", http.StatusUnauthorized)
		return
	}
	respondData(w, http.StatusOK, out)
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[claims.UserID]
	if !ok {
		respondError(w, "user not found", http.StatusUnauthorized)
		return
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	u.UpdatedAt = time.Now().UTC()
	respondData(w, http.StatusOK, *u)
}
