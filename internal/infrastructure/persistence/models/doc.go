// Package models contains the GORM persistence models for the POS tables.
// Domain entities carry no ORM tags; each model converts with ToDomain and
// a FromDomain constructor.
//
// Column types follow the SQL migrations: money is numeric(18,4), rates
// and reporting unit prices are numeric(20,10).
package models
