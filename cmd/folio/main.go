// Command folio manages collections of pages with typed properties.
package main

import "github.com/mesh-intelligence/folio/internal/cli"

func main() {
	cli.Execute()
}
