package main

import "github.com/antswarm/antndn/cmd"

func main() {
	cmd.CmdAntSim.Execute()
}
