// Package mock is used to generate mock files for testing.
package mock

//go:generate mockgen -package mock_goaccess -source ../authenticator_iface.go -destination mock_goaccess/mock_authenticator_iface.go
