// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The query pipeline runs Filter compilation, candidate resolution,
// grouped vector search and result assembly in that order. Link
// lifecycle, ratings and points live in their own services.
package services
