// Command entitykeys derives storage keys from schema files and stores
// entities under them.
package main

import "github.com/mesh-intelligence/entitykeys/internal/cli"

func main() {
	cli.Execute()
}
