package fakebackend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/friends"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/auth/jwt"
)

type ctxKey struct{}

// router sets up the routing table: REST endpoints under /api and the push channel at /ws.
func (b *Backend) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Use(b.record)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", b.handleLogin)
			auth.Post("/register", b.handleRegister)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(b.identity)

			authed.Get("/conversations", b.handleConversations)
			authed.Get("/conversations/{id}/messages", b.handleMessages)

			authed.Get("/friends", b.handleFriends)
			authed.Get("/friends/requests/incoming", b.handleRequests(true))
			authed.Get("/friends/requests/outgoing", b.handleRequests(false))
			authed.Post("/friends/request", b.handleSendRequest)
			authed.Post("/friends/request/{id}/accept", b.handleAnswerRequest(true))
			authed.Post("/friends/request/{id}/decline", b.handleAnswerRequest(false))
			authed.Delete("/friends/{id}", b.handleRemoveFriend)

			authed.Get("/search", b.handleSearch)
		})
	})

	r.Get("/ws", b.handleWebSocket)

	return r
}

// record stores every call and serves canned failures.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		failure, failing := b.failures[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api")]
		b.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(failure.Status)
			_, _ = io.WriteString(w, failure.Body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identity resolves the bearer token to the signed-in user, answering 401 otherwise.
func (b *Backend) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := b.authenticate(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func (b *Backend) authenticate(r *http.Request) (user.User, bool) {
	token, ok := jwt.TokenFromHeader(r.Header.Get("Authorization"))
	if !ok {
		return user.User{}, false
	}

	payload, err := jwt.ParseToken(token, Secret)
	if err != nil {
		return user.User{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == payload.UserID {
			return acc.user, true
		}
	}
	return user.User{}, false
}

func currentUser(r *http.Request) user.User {
	u, _ := r.Context().Value(ctxKey{}).(user.User)
	return u
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	var found *account
	for i := range b.accounts {
		if b.accounts[i].user.Email == in.Email && b.accounts[i].password == in.Password {
			found = &b.accounts[i]
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: b.Token(found.user), User: found.user})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	for _, acc := range b.accounts {
		if acc.user.Email == in.Email || acc.user.Username == in.Username {
			b.mu.Unlock()
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
	}
	u := b.addUserLocked(in.Username, in.Email, in.Password)
	b.mu.Unlock()

	respondJSON(w, http.StatusCreated, authResponse{Token: b.Token(u), User: u})
}

func (b *Backend) handleConversations(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	b.mu.Lock()
	out := append([]chat.Conversation{}, b.conversations[me.ID]...)
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid conversation id")
		return
	}

	me := currentUser(r)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, conv := range b.conversations[me.ID] {
		if conv.ID == id {
			respondJSON(w, http.StatusOK, append([]chat.Message{}, b.messages[id]...))
			return
		}
	}
	respondError(w, http.StatusNotFound, "Conversation not found")
}

func (b *Backend) handleFriends(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, b.Friends(currentUser(r)))
}

func (b *Backend) handleRequests(incoming bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := currentUser(r)

		b.mu.Lock()
		out := []friends.Request{}
		for _, req := range b.requests {
			if (incoming && req.UserBID == me.ID) || (!incoming && req.UserAID == me.ID) {
				out = append(out, req)
			}
		}
		b.mu.Unlock()

		respondJSON(w, http.StatusOK, out)
	}
}

func (b *Backend) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ToUsername string `json:"toUsername"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	me := currentUser(r)

	b.mu.Lock()
	var target *user.User
	for i := range b.accounts {
		if b.accounts[i].user.Username == in.ToUsername {
			target = &b.accounts[i].user
			break
		}
	}
	if target == nil {
		b.mu.Unlock()
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	if target.ID == me.ID {
		b.mu.Unlock()
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "You cannot add yourself"})
		return
	}
	for _, req := range b.requests {
		if req.UserAID == me.ID && req.UserBID == target.ID {
			b.mu.Unlock()
			respondJSON(w, http.StatusConflict, map[string]string{"error": "Request already sent"})
			return
		}
	}
	req := b.addRequestLocked(me, *target)
	b.mu.Unlock()

	b.Push(*target, "friend_request:new", map[string]any{"id": req.ID, "from": map[string]string{"username": me.Username}})
	respondJSON(w, http.StatusCreated, req)
}

func (b *Backend) handleAnswerRequest(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid request id")
			return
		}

		me := currentUser(r)

		b.mu.Lock()
		idx := -1
		for i, req := range b.requests {
			if req.ID == id && req.UserBID == me.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			b.mu.Unlock()
			respondError(w, http.StatusNotFound, "Request not found")
			return
		}
		req := b.requests[idx]
		b.requests = append(b.requests[:idx], b.requests[idx+1:]...)
		if accept {
			b.friendsOf[req.UserAID] = append(b.friendsOf[req.UserAID], req.UserB)
			b.friendsOf[req.UserBID] = append(b.friendsOf[req.UserBID], req.UserA)
		}
		b.mu.Unlock()

		if accept {
			b.Push(req.UserA, "friend_request:accepted", map[string]any{"id": req.ID, "acceptedBy": map[string]string{"username": me.Username}})
		}
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (b *Backend) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid friend id")
		return
	}

	me := currentUser(r)

	b.mu.Lock()
	b.friendsOf[me.ID] = removeUser(b.friendsOf[me.ID], id)
	b.friendsOf[id] = removeUser(b.friendsOf[id], me.ID)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func removeUser(list []user.User, id int64) []user.User {
	out := list[:0]
	for _, u := range list {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	b.mu.Lock()
	out := []user.User{}
	for _, acc := range b.accounts {
		if q == "" || strings.Contains(strings.ToLower(acc.user.Username), q) {
			out = append(out, user.User{ID: acc.user.ID, Username: acc.user.Username, Avatar: acc.user.Avatar})
		}
	}
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}
