package http

import (
	"github.com/go-directory-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-directory-api/internal/infrastructure/jwt"
	s3infra "github.com/go-directory-api/internal/infrastructure/s3"
	"github.com/go-directory-api/internal/infrastructure/smtp"
	"github.com/go-directory-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	VerificationRepo *dynamo.VerificationRepo
	AvatarStore      *s3infra.Store
	Mailer           smtp.Mailer
	Events           sns.EventPublisher
	JWTProvider      *jwtinfra.Provider
}
