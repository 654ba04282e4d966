package gym

// Service bundles the domain components around one Store.
type Service struct {
	Gate         *MembershipGate
	Catalog      *Catalog
	Reservations *Reservations
	Attendance   *Attendance
	Users        *Users
}

func NewService(store Store, clock Clock, fence Geofence, rec Recorder) *Service {
	gate := NewMembershipGate(store, clock)
	return &Service{
		Gate:         gate,
		Catalog:      NewCatalog(store, clock),
		Reservations: NewReservations(store, gate, clock, rec),
		Attendance:   NewAttendance(store, gate, clock, fence),
		Users:        NewUsers(store),
	}
}
