package bike

import "context"

type Repository interface {
	Create(ctx context.Context, b *Bike) (*Bike, error)
	GetAll(ctx context.Context) ([]Bike, error)
	GetByID(ctx context.Context, id int) (*Bike, error)
	Update(ctx context.Context, b *Bike) (*Bike, error)

	// Delete removes the bike, its reservations and every user's back-reference
	// rows for it in one transaction. It returns the stored image path, if any,
	// so the caller can remove the file.
	Delete(ctx context.Context, id int) (*string, error)

	SetImage(ctx context.Context, id int, path string) error
}
