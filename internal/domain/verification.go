package domain

// VerificationToken proves mailbox ownership. Single-use: UsedAt flips from
// zero exactly once, and issuing a new token for a user replaces the old one.
// PK: user_id, SK: type ("email").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationToken struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Type      string `json:"type" dynamodbav:"type"`
	Token     string `json:"-" dynamodbav:"token"`
	IssuedAt  int64  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	UsedAt    int64  `json:"-" dynamodbav:"used_at"`             // 0 while unused
}

// VerificationEmail is the token type for mailbox-ownership checks.
const VerificationEmail = "email"
