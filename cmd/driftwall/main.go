// Command driftwall is the client CLI that talks to a running
// driftwalld over its namespaced Unix socket (spec.md §6 "CLI surface
// (client)").
package main

func main() {
	Execute()
}
