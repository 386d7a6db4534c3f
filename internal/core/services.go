package core

// Services bundles every core service behind one constructor so callers wire
// the database and key generator exactly once.
type Services struct {
	Tenant      *TenantService
	Admin       *AdminService
	Client      *ClientService
	User        *UserService
	Host        *HostService
	Enrollment  *EnrollmentService
	Delegation  *DelegationService
	HostMapping *HostMappingService
	Dependency  *DependencyService
	Credential  *CredentialService
	Reservation *ReservationService
}

func NewServices(db TxDB, keys KeyGenerator) *Services {
	deps := NewDependencyService(db)
	return &Services{
		Tenant:      NewTenantService(db),
		Admin:       NewAdminService(db),
		Client:      NewClientService(db),
		User:        NewUserService(db),
		Host:        NewHostService(db),
		Enrollment:  NewEnrollmentService(db),
		Delegation:  NewDelegationService(db),
		HostMapping: NewHostMappingService(db),
		Dependency:  deps,
		Credential:  NewCredentialService(db, deps, keys),
		Reservation: NewReservationService(db, deps),
	}
}
