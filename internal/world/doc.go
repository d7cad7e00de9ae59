// Package world declares the runtime the duplicator talks to.
//
// The physics engine and entity runtime are external collaborators: they
// own bodies, constraint solving, instantiation by class name and object
// lifetime. This package names the narrow contract capture and replay rely
// on, plus the optional capability hooks an object type may implement to
// take part in duplication. Nothing here has behaviour; internal/sandbox
// provides an in-memory implementation for tests and tooling.
package world
