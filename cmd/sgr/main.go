// Command sgr runs the reference schema-guided reasoning agent.
package main

import "github.com/KulikovMichael/sgr-base-agent/internal/cli"

func main() {
	cli.Execute()
}
