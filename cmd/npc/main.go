// Package main provides the npc command line client for npcd.
package main

func main() {
	Execute()
}
