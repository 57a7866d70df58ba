package main

import "amazobank.com/crm/cmd/crmapi/cmd"

func main() {
	cmd.Execute()
}
