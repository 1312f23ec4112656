// Package types defines the Workspace and table interfaces, the typed Value
// model, entity types, and standard error types for folio.
//
// Collections hold pages; every collection declares typed properties and each
// page carries one value per property. Filters and a sort directive scope the
// page list the query composer returns.
package types
