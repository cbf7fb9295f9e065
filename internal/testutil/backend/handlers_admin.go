package backend

import (
	"net/http"
	"sort"
	"time"
)

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	b.mu.Lock()
	list := make([]User, 0, len(b.users))
	for _, u := range b.users {
		if role == "" || u.Role == role {
			list = append(list, *u)
		}
	}
	b.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	page, p := paginate(r, list)
	respondPage(w, page, p)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	u, found := b.users[id]
	var out User
	if found {
		out = *u
	}
	b.mu.Unlock()
	if !found {
		respondError(w, "user not found", http.StatusNotFound)
		return
	}
	respondData(w, http.StatusOK, out)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Role  *string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Role != nil && *req.Role != RoleAdmin && *req.Role != RoleCustomer {
		respondError(w, "role must be admin or customer", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, found := b.users[id]
	if !found {
		respondError(w, "user not found", http.StatusNotFound)
		return
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = time.Now().UTC()
	respondData(w, http.StatusOK, *u)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	_, found := b.users[id]
	delete(b.users, id)
	delete(b.passwords, id)
	b.mu.Unlock()
	if !found {
		respondError(w, "user not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "user deleted")
}

func (b *Backend) listLogs(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	b.mu.Lock()
	list := make([]LogEntry, 0, len(b.logs))
	for i := len(b.logs) - 1; i >= 0; i-- {
		if level == "" || b.logs[i].Level == level {
			list = append(list, *b.logs[i])
		}
	}
	b.mu.Unlock()
	page, p := paginate(r, list)
	respondPage(w, page, p)
}
