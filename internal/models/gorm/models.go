package gorm

// All lists every model owned by the sync service, in migration order.
func All() []interface{} {
	return []interface{}{
		&IntegrationConfig{},
		&AccommodationUnit{},
		&Reservation{},
		&ReservationAccommodation{},
		&SyncRun{},
	}
}
