package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState is the observable state of the document service.
type ServiceState struct {
	StorageAvailable bool   `json:"storage_available"`
	StorageBusy      bool   `json:"storage_busy"`
	StorageType      string `json:"storage_type"`
	IndexType        string `json:"index_type"`
}

// componentType names c by its introspection type, or by fallback.
func componentType(c any, fallback string) string {
	if c == nil {
		return "none"
	}
	if comp, ok := c.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

func (s *Service) State() any {
	return ServiceState{
		StorageAvailable: s.StorageAvailable(),
		StorageBusy:      s.guard.Busy(),
		StorageType:      componentType(s.storage, "storage"),
		IndexType:        componentType(s.index, "index"),
	}
}

func (s *Service) ComponentType() string {
	return "document-service"
}

var (
	_ introspection.Introspectable = (*Service)(nil)
	_ introspection.Component      = (*Service)(nil)
)
