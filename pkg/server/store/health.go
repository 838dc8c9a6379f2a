package store

// HealthStore answers the status endpoint's connectivity probe
type HealthStore interface {
	// CheckConnectivity verifies database connectivity
	CheckConnectivity() error
}
