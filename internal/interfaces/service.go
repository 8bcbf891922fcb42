package interfaces

// Service is a client-facing surface of the daemon, started once at boot and
// stopped on shutdown.
type Service interface {
	Start() error
	Stop()
}
