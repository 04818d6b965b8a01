// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel (optimistic version column)
//   - fulfillment.go: fulfillment orders, items, product sources, customer orders, shipments
package models
