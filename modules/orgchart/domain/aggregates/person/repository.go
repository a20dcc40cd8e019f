package person

import "context"

// Repository is the person store used by the import and export flows. All
// methods join the transaction carried by ctx when there is one.
type Repository interface {
	// DeleteAll removes every person and every relationship.
	DeleteAll(ctx context.Context) (int64, error)
	Create(ctx context.Context, p Person) (Person, error)
	// GetAll returns every person ordered by id, with relations attached.
	GetAll(ctx context.Context) ([]Person, error)
	// GetByName returns the most recently created person with the exact name.
	GetByName(ctx context.Context, name string) (Person, error)
	// Link records supervisorID as a supervisor of subordinateID. Linking an
	// existing pair is a no-op.
	Link(ctx context.Context, supervisorID, subordinateID int64) error
	Unlink(ctx context.Context, supervisorID, subordinateID int64) error
}
