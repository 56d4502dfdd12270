package member

import (
	"context"
	"fmt"
)

var ErrMemberNotFound = fmt.Errorf("member not found")

// Repository is the read-only view of the membership source.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Member, error)
}
