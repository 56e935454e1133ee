package googleauth

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/crypto/pkcs12"
)

// p12Password is the fixed password Google puts on every .p12 service-account key.
const p12Password = "notasecret"

// PEMKey normalises a key blob to PEM. PEM input (PKCS#1 or PKCS#8) is checked
// and returned as-is; anything else is treated as a PKCS#12 archive.
func PEMKey(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty key")
	}
	if block, _ := pem.Decode(blob); block != nil {
		if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			return blob, nil
		}
		if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
			return blob, nil
		}
		return nil, fmt.Errorf("PEM block %q is not a PKCS#1 or PKCS#8 private key", block.Type)
	}

	key, _, err := pkcs12.Decode(blob, p12Password)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal pkcs8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
