package blockcodec

import "github.com/blockvault/aes256filter/internal/fault"

// pkcs7Pad pads data to a multiple of blockSize, always adding at least one
// byte of padding (the original filter's OpenSSL EVP default behavior: a
// block-aligned plaintext still gets a full pad block).
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)

	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	return padded
}

// pkcs7Unpad strips PKCS#7 padding, validating that every pad byte matches
// the claimed padding length.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%blockSize != 0 {
		return nil, fault.E(fault.DecryptFailed, "padded length is not block-aligned")
	}

	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fault.E(fault.DecryptFailed, "invalid padding length")
	}

	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fault.E(fault.DecryptFailed, "invalid padding bytes")
		}
	}

	return data[:n-padLen], nil
}
