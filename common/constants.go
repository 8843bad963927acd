package common

const (
	// AppName is the name of the application
	AppName = "data-miner-service"
)
