package factory_test

import (
	"fmt"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/factory"
	"github.com/ardnew/vartab/lang"
)

type rect struct{ w, h float64 }

func ExampleRegistry() {
	r := factory.NewRegistry()
	r.MustRegister("Shape", "Rect", func(s *factory.Spec) (any, error) {
		w, _ := factory.Get[float64](s, "w")
		h, _ := factory.Get[float64](s, "h")

		return rect{w: w, h: h}, nil
	},
		factory.Member{Name: "w", Type: "double", Required: true},
		factory.Member{Name: "h", Type: "double", Required: true},
	)

	e := r.NewEnvironment()
	defer e.Close()

	ts, _ := lang.NewStreamFromString(`Rect(w(2), h(3.5))`)
	if err := e.ReadAndSet("box", ts, ""); err != nil {
		fmt.Println(err)

		return
	}

	typeName, _ := e.GetType("box")
	box, _ := env.Lookup[rect](e, "box")

	fmt.Println(typeName, box.w*box.h)
	// Output: Shape 7
}
