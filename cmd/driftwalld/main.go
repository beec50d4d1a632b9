// Command driftwalld is the background daemon that owns the Wayland
// connection and every output's animated background (spec.md §5, §6
// "driftwalld").
package main

import "github.com/joho/godotenv"

func main() {
	_ = godotenv.Load()
	Execute()
}
