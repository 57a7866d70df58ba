package main

import "amazobank.com/crm/cmd/crmctl/cmd"

func main() {
	cmd.Execute()
}
