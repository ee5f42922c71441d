//go:build !unix

package apply

func isCrossDevice(error) bool { return false }
