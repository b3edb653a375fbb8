// Package domain holds the validated entities of the equipment reservation
// system together with the value validators they are built from.
//
// Entities are only obtainable through their factory functions (NewBuilding,
// NewReservation, ...). A factory either returns a fully valid value or a
// *ValidationError naming the first invariant that failed. Validation always
// runs in the same order: identifier, required fields, referenced
// identifiers, enumerations, cross-field rules and finally collection
// elements.
//
// Entities expose their state through accessor methods only. Editing an
// entity means taking its Input, changing a field and running it through the
// factory again, so every change is re-validated.
package domain
