package mysql

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	Offer        *OfferRepository
	Assignment   *AssignmentRepository
	Penalty      *PenaltyRepository
	Gamification *GamificationRepository
	Location     *LocationRepository
}

// NewRepository creates a new MySQL repository with all sub-repositories
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFromDatastore(ds), nil
}

// NewRepositoryFromDatastore builds the sub-repositories on an existing datastore
func NewRepositoryFromDatastore(ds *Datastore) *Repository {
	return &Repository{
		ds:           ds,
		Offer:        NewOfferRepository(ds),
		Assignment:   NewAssignmentRepository(ds),
		Penalty:      NewPenaltyRepository(ds),
		Gamification: NewGamificationRepository(ds),
		Location:     NewLocationRepository(ds),
	}
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
