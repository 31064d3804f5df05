package eventbus

// Type represents the event bus backend.
type Type string

const (
	// TypeMemory is an in-process bus for single-replica deployments.
	TypeMemory Type = "memory"
	// TypeRedis is a Redis pub/sub bus shared between replicas.
	TypeRedis Type = "redis"
)

// Valid reports whether t names a known backend.
func (t Type) Valid() bool {
	switch t {
	case TypeMemory, TypeRedis:
		return true
	}
	return false
}
