package fastc

import "os"

// defaultReadFile backs FileLoader with the real filesystem; tests
// substitute readFileFunc with an in-memory fixture instead of
// stubbing the os package.
func defaultReadFile(name string) ([]byte, string, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, name, err
	}
	return b, name, nil
}
