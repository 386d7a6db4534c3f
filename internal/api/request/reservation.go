package request

// CreateReservation holds the request body for opening a root reservation
// against an issued credential. An omitted or negative ttl_minutes requests
// the full reservation window.
type CreateReservation struct {
	ClientID    string `json:"client_id" validate:"required,slug"`
	UserID      string `json:"user_id" validate:"required,slug"`
	Host        string `json:"host" validate:"required,hostname_rfc1123"`
	Fingerprint string `json:"fingerprint" validate:"required,fingerprint"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}

// ExtendReservation holds the request body for extending a reservation. The
// user, host, and fingerprint must match the reservation being extended.
type ExtendReservation struct {
	ClientID    string `json:"client_id" validate:"required,slug"`
	UserID      string `json:"user_id" validate:"required,slug"`
	Host        string `json:"host" validate:"required,hostname_rfc1123"`
	Fingerprint string `json:"fingerprint" validate:"required,fingerprint"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}
