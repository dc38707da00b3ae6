package main

import "soapmirror/cmd"

func main() {
	cmd.Execute()
}
