package search

import "sort"

// adapters is the process-wide adapter registry, keyed by doc type.
// Registration happens during startup, before any query is compiled;
// the map is read-only afterwards, so no locking is needed.
var adapters = map[string]*Adapter{}

// Register adds an adapter to the registry. Registration is keyed by
// doc type and idempotent: registering the same adapter twice has the
// same effect as registering it once.
func Register(adapter *Adapter) error {
	if err := adapter.Validate(); err != nil {
		return err
	}
	adapters[adapter.DocType] = adapter
	return nil
}

// Lookup resolves a registered adapter by doc type.
func Lookup(docType string) (*Adapter, error) {
	adapter, ok := adapters[docType]
	if !ok {
		return nil, NotFoundError{DocType: docType}
	}
	return adapter, nil
}

// All returns every registered adapter ordered by doc type.
func All() []*Adapter {
	out := make([]*Adapter, 0, len(adapters))
	for _, adapter := range adapters {
		out = append(out, adapter)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocType < out[j].DocType })
	return out
}
