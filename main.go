/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/expensely/ledger/cmd"

func main() {
	cmd.Execute()
}
