package keys_test

import (
	"fmt"

	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/proptypes"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

func ExampleEncodeStringKey() {
	fmt.Println(keys.EncodeStringKey("my/path?x=1"))
	fmt.Println(keys.EncodeStringKey(""))
	// Output:
	// my!2Fpath!3Fx!3D1
	// !
}

func ExampleCompile() {
	m := types.NewMapping().MustAdd("id", proptypes.String)
	k, err := keys.Compile(keys.Definition{
		keys.Constant{Value: "my-constant"},
		keys.Property{Name: "id"},
	}, m)
	if err != nil {
		fmt.Println(err)
		return
	}
	key, err := k.Render(types.Properties{"id": "abc"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(key)
	fmt.Println(k.Covers())
	// Output:
	// ~QMZhNqxiRrGWQbF~NL8Y
	// [id]
}

func ExampleCompositeKey() {
	m := types.NewMapping().
		MustAdd("a", proptypes.String).
		MustAdd("b", proptypes.String)
	k, err := keys.CompositeKey("a", "b")(m)
	if err != nil {
		fmt.Println(err)
		return
	}
	key, _ := k.Exact(types.Properties{"a": "x", "b": "y"})
	fmt.Println(key)
	// Output: x~y
}
