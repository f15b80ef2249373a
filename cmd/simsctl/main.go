// Command simsctl is the operator CLI for the session and access-control
// core.
//
// Usage:
//
//	simsctl password check 'Tr0ub4dor&3'
//	simsctl mask phone 13812345678 --role teacher
//	simsctl perms college_admin
//	simsctl crypto keygen
//	simsctl session login -u 2024001 -p 'Welcome#2024'
//	simsctl session status
package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
