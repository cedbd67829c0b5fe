package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-directory-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login responses.
type AuthEnvelope struct {
	Bearer string    `json:"bearer,omitempty"`
	User   *SafeUser `json:"user,omitempty"`
}

// UserEnvelope wraps single-user responses. VerificationEmailSent is set on
// registration only; false means the mail failed and the client should offer
// a resend.
type UserEnvelope struct {
	User                  *SafeUser `json:"user,omitempty"`
	Message               string    `json:"message,omitempty"`
	VerificationEmailSent *bool     `json:"verification_email_sent,omitempty"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []*SafeUser `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// RankingEnvelope wraps the leaderboard response.
type RankingEnvelope struct {
	Ranking []RankingEntry `json:"ranking"`
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Position  int    `json:"position"`
	UserID    string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Score     int64  `json:"score"`
}

// SafeUser is the outward projection of a user record. The credential hash
// never appears here.
type SafeUser struct {
	UserID        string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	BirthDate     string    `json:"birth_date,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Score         int64     `json:"score"`
	CreatedAt     time.Time `json:"created"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	birthDate := ""
	if !u.BirthDate.IsZero() {
		birthDate = u.BirthDate.Format("2006-01-02")
	}
	return &SafeUser{
		UserID:        u.UserID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		BirthDate:     birthDate,
		EmailVerified: u.EmailVerified,
		Score:         u.Score,
		CreatedAt:     u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
