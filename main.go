package main

import "github.com/nextlevelbuilder/gorepl/cmd"

func main() {
	cmd.Execute()
}
