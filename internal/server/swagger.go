package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title Centinela API
// @version 0.1
// @description Session API for submitting URLs to the Centinela Analysis Service and following the result.
// @contact.name Centinela Maintainers
// @contact.url https://github.com/raysh454/centinela
// @BasePath /
