//go:build windows

package config

func makeExecutable(string) error {
	return nil
}
