package keystore

import "os"

func writeRawForTest(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}
