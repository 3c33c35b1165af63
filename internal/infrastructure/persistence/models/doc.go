// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Each model has ToDomain and FromDomain mappers. Repositories in the parent
// package read and write models only.
//
// The authoritative schema lives in the SQL migrations; the GORM tags here
// mirror it closely enough for AutoMigrate to build a SQLite test schema.
package models
