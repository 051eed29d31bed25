// Package factory constructs composite objects for an [env.Environment].
//
// A [Registry] maps concrete type names to the abstract base type they
// implement, the members they are initialized from, and a [Constructor].
// It implements both [env.Builder] and [env.Hierarchy]:
//
//	r := factory.NewRegistry()
//	r.MustRegister("Animal", "Cow", newCow,
//		factory.Member{Name: "name", Type: "string", Required: true},
//		factory.Member{Name: "weight", Type: "double"},
//		factory.Member{Name: "calves", Type: "Animal[]"})
//
//	e := r.NewEnvironment()
//
// Values of a base type are then written as construction specs
//
//	Animal bessie = Cow(name("Bessie"), weight(612.5));
//	Animal[] herd = {bessie, Cow(name("Daisy"), calves({bessie}))};
//	Animal nobody = nullptr;
//
// Each member initializer is bound like a variable in a scratch clone of
// the Environment, so it may be a literal, a reference to a variable or to
// an earlier member, an array literal or another construction spec.
package factory
