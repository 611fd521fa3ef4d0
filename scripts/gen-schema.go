//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/clbarnes/ome-zarr-conformance/protocol"
)

func main() {
	data, err := protocol.GenerateSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("protocol/schema/verdict.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote protocol/schema/verdict.json")
}
