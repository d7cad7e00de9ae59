// Package sandbox is an in-memory world.Runtime.
//
// It models just enough of an entity/physics runtime for the duplicator to
// run against: entities with a parent/child hierarchy, physics groups with
// one or more bodies, joints that fire their broken callbacks when removed,
// cosmetic ropes and an undo log. There is no simulation; poses only change
// when something sets them.
//
// Class behaviour is plugged in with factories. A factory wraps the base
// *Entity in its own type, so an object that wants capture or paste hooks is
// an ordinary Go type that embeds *Entity and implements the interfaces in
// package world:
//
//	type Thruster struct{ *sandbox.Entity; Force float32 }
//
//	w.Register("thruster", func(e *sandbox.Entity) world.Object {
//		return &Thruster{Entity: e}
//	})
//
// Scenes for tests and the CLI are described in YAML and built with
// LoadScene.
package sandbox
