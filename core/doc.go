// Package core provides the generic, type-safe resource-identifier and
// registry substrate used throughout the decoder: a generational ID
// (index + epoch, preventing use-after-free on handle reuse), a typed
// Storage keyed by that ID, and a Registry combining the two into an
// allocate/lookup/release resource table.
//
// ID System:
//
// Resources are identified by type-safe IDs that combine an index and epoch:
//
//	type DeviceID = ID[DeviceMarker]
//	id := NewID[DeviceMarker](index, epoch)
//	index, epoch := id.Unzip()
//
// The epoch prevents use-after-free bugs by invalidating old IDs when
// resources are recycled.
//
// Registry Pattern:
//
// Resources are stored in typed registries that manage their lifecycle:
//
//	registry := NewRegistry[Device, DeviceMarker]()
//	id := registry.Register(device)
//	device, err := registry.Get(id)
//	registry.Unregister(id)
//
// The boxed-handle manager (package boxed) builds its token store on top
// of Registry; every per-kind state table in package state is keyed the
// same way.
//
// Thread Safety:
//
// All types in this package are safe for concurrent use unless
// explicitly documented otherwise.
package core
