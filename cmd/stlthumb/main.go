// Package main is the entry point for the stlthumb thumbnailer.
package main

func main() {
	Execute()
}
