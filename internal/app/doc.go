// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the driving loop that feeds external
// sources and runs the executor's stages, decoupled from any specific
// entrypoint like a CLI or server.
package app
