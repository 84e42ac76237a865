// Package api provides the BGPVPN REST API.
//
//	@title						BGPVPN API
//	@version					1.0
//	@description				BGPVPN resources and their network and router associations
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
