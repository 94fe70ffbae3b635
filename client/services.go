package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"sushicount-api/models"
)

// =============================================================================
// Request/Response Types
// =============================================================================

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type ParticipantInput struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
	Rating *int   `json:"rating,omitempty"`
}

type CreateSessionInput struct {
	Title          string             `json:"title"`
	RestaurantName *string            `json:"restaurant_name,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Participants   []ParticipantInput `json:"participants,omitempty"`
}

type UpdateSessionInput struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RestaurantName *string `json:"restaurant_name,omitempty"`
	Description    *string `json:"description,omitempty"`
	IsActive       bool    `json:"is_active"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func segment(s string) string {
	return url.PathEscape(s)
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrInvalidArgument
		}
	}
	return nil
}

// =============================================================================
// Users
// =============================================================================

type UserService struct {
	c *Client
}

func (s *UserService) GetAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login checks the credentials and stores the user and token locally.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := requireIDs(email, password); err != nil {
		return nil, err
	}

	var resp loginResponse
	path := fmt.Sprintf("/api/users/login/%s/%s", segment(email), segment(password))
	if err := s.c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User.Email == "" {
		return nil, errors.New("login response without user")
	}

	if s.c.store != nil {
		if err := s.c.store.SetLogin(resp.User, resp.Token); err != nil {
			return nil, err
		}
	}
	return &resp.User, nil
}

func (s *UserService) Logout() error {
	if s.c.store == nil {
		return nil
	}
	return s.c.store.ClearLogin()
}

// LoggedIn returns the stored user, or nil when nobody is signed in.
func (s *UserService) LoggedIn() (*models.User, error) {
	if s.c.store == nil {
		return nil, nil
	}
	return s.c.store.User()
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var user models.User
	if err := s.c.do(ctx, http.MethodPost, "/api/users", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the user and refreshes the stored copy when it is the signed-in user.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) error {
	if err := requireIDs(in.ID); err != nil {
		return err
	}
	if err := s.c.do(ctx, http.MethodPut, "/api/users", in, nil); err != nil {
		return err
	}
	if s.c.store == nil {
		return nil
	}

	current, err := s.c.store.User()
	if err != nil || current == nil || current.ID != in.ID {
		return err
	}
	fresh, err := s.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	return s.c.store.SetUser(*fresh)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.c.do(ctx, http.MethodGet, "/api/users/"+segment(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := requireIDs(id); err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodDelete, "/api/users/"+segment(id), nil, nil)
}

// =============================================================================
// Sessions
// =============================================================================

type SessionService struct {
	c *Client
}

func (s *SessionService) list(ctx context.Context, path string) ([]models.Session, error) {
	sessions := []models.Session{}
	if err := s.c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionService) GetAll(ctx context.Context) ([]models.Session, error) {
	return s.list(ctx, "/api/sessions")
}

// Mine lists sessions the user created or joined.
func (s *SessionService) Mine(ctx context.Context, userID string) ([]models.Session, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.list(ctx, "/api/sessions/mine/"+segment(userID))
}

// Open lists the active sessions of Mine.
func (s *SessionService) Open(ctx context.Context, userID string) ([]models.Session, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.list(ctx, "/api/sessions/open/"+segment(userID))
}

func (s *SessionService) GetByID(ctx context.Context, id string) (*models.Session, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	var session models.Session
	if err := s.c.do(ctx, http.MethodGet, "/api/sessions/"+segment(id), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionService) Create(ctx context.Context, creatorID string, in CreateSessionInput) (*models.Session, error) {
	if err := requireIDs(creatorID); err != nil {
		return nil, err
	}
	var session models.Session
	if err := s.c.do(ctx, http.MethodPost, "/api/sessions/create/"+segment(creatorID), in, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionService) Update(ctx context.Context, in UpdateSessionInput) error {
	if err := requireIDs(in.ID); err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodPut, "/api/sessions", in, nil)
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := requireIDs(id); err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodDelete, "/api/sessions/"+segment(id), nil, nil)
}

// =============================================================================
// Participants
// =============================================================================

type ParticipantService struct {
	c *Client
}

var ErrCountOverflow = errors.New("sushi counter overflow")

func (s *ParticipantService) AddOrUpdate(ctx context.Context, sessionID string, in ParticipantInput) error {
	if err := requireIDs(sessionID, in.UserID); err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodPut, "/api/sessions/"+segment(sessionID)+"/participants", in, nil)
}

func (s *ParticipantService) Remove(ctx context.Context, sessionID, userID string) error {
	if err := requireIDs(sessionID, userID); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/sessions/%s/participants/%s", segment(sessionID), segment(userID))
	return s.c.do(ctx, http.MethodDelete, path, nil, nil)
}

// AddCount adds delta to the local counter and returns the new value.
func (s *ParticipantService) AddCount(delta int) (int, error) {
	store, err := s.localStore()
	if err != nil {
		return 0, err
	}

	total, _, err := store.Count()
	if err != nil {
		return 0, err
	}
	if (delta > 0 && total > math.MaxInt-delta) || (delta < 0 && total < math.MinInt-delta) {
		return total, ErrCountOverflow
	}
	total += delta

	if err := store.SetCount(total); err != nil {
		return 0, err
	}
	return total, nil
}

// CurrentCount returns the local counter, 0 when unset.
func (s *ParticipantService) CurrentCount() (int, error) {
	store, err := s.localStore()
	if err != nil {
		return 0, err
	}
	total, _, err := store.Count()
	return total, err
}

func (s *ParticipantService) ResetCount() error {
	store, err := s.localStore()
	if err != nil {
		return err
	}
	return store.ClearCount()
}

// Commit sends the local counter to the session and clears it once the server accepts.
// A negative counter is sent as 0 and the rating is clamped to the valid range.
func (s *ParticipantService) Commit(ctx context.Context, sessionID, userID string, rating *int) error {
	if err := requireIDs(sessionID, userID); err != nil {
		return err
	}

	count, err := s.CurrentCount()
	if err != nil {
		return err
	}

	in := ParticipantInput{UserID: userID, Count: max(0, count)}
	if rating != nil {
		clamped := models.ClampRating(*rating)
		in.Rating = &clamped
	}

	if err := s.AddOrUpdate(ctx, sessionID, in); err != nil {
		return err
	}
	return s.ResetCount()
}

func (s *ParticipantService) localStore() (*LocalStore, error) {
	if s.c.store == nil {
		return nil, errors.New("no local store configured")
	}
	return s.c.store, nil
}

// =============================================================================
// Friends
// =============================================================================

type FriendService struct {
	c *Client
}

func (s *FriendService) users(ctx context.Context, path string) ([]models.User, error) {
	users := []models.User{}
	if err := s.c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FriendService) requests(ctx context.Context, path string) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	if err := s.c.do(ctx, http.MethodGet, path, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *FriendService) Friends(ctx context.Context, userID string) ([]models.User, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.users(ctx, "/api/friends/"+segment(userID)+"/friends")
}

func (s *FriendService) Remove(ctx context.Context, userID, friendID string) error {
	if err := requireIDs(userID, friendID); err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodDelete, "/api/friends/"+segment(userID)+"/"+segment(friendID), nil, nil)
}

func (s *FriendService) Search(ctx context.Context, term string) ([]models.User, error) {
	return s.users(ctx, "/api/friends/search?"+url.Values{"term": {term}}.Encode())
}

func (s *FriendService) SendRequest(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	if err := requireIDs(fromUserID, toUserID); err != nil {
		return nil, err
	}
	body := map[string]string{"from_user_id": fromUserID, "to_user_id": toUserID}

	var request models.FriendRequest
	if err := s.c.do(ctx, http.MethodPost, "/api/friends/request", body, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *FriendService) Incoming(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.requests(ctx, "/api/friends/"+segment(userID)+"/incoming")
}

func (s *FriendService) Outgoing(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.requests(ctx, "/api/friends/"+segment(userID)+"/outgoing")
}

func (s *FriendService) Respond(ctx context.Context, requestID string, accept bool) error {
	if err := requireIDs(requestID); err != nil {
		return err
	}
	body := map[string]interface{}{"request_id": requestID, "accept": accept}
	return s.c.do(ctx, http.MethodPost, "/api/friends/respond", body, nil)
}
