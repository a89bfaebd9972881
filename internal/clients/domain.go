package clients

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a customer placing orders.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Input carries the mutable fields of a client. Update replaces all of them.
type Input struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (in Input) normalized() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = trimOptional(in.Phone)
	in.Email = trimOptional(in.Email)
	return in
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
