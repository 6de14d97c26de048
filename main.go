/*
Copyright © 2026 FulmenHQ
*/
package main

import "github.com/fulmenhq/strapi-plugin/cmd"

func main() {
	cmd.Execute()
}
